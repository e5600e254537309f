package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

func registerComputeEndpoints(router *mux.Router, p *providerResolver) {
	router.HandleFunc("/compute/", linksHandler("regions", "machine_images", "instance_types", "instances")).Methods("GET")

	router.HandleFunc("/compute/regions/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		regions, err := c.Compute().Regions().List(r.Context())
		return respondList(w, regions, err)
	})).Methods("GET")
	router.HandleFunc("/compute/regions/{region}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		region, err := c.Compute().Regions().Get(r.Context(), pathVar(r, "region"))
		return respondItem(w, http.StatusOK, region, err)
	})).Methods("GET")
	router.HandleFunc("/compute/regions/{region}/zones/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		zones, err := c.Compute().Regions().Zones(r.Context(), pathVar(r, "region"))
		return respondList(w, zones, err)
	})).Methods("GET")
	router.HandleFunc("/compute/regions/{region}/zones/{zone}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		zones, err := c.Compute().Regions().Zones(r.Context(), pathVar(r, "region"))
		if err != nil {
			return err
		}
		id := pathVar(r, "zone")
		for i := range zones {
			if zones[i].ID == id {
				respondWithJSON(w, http.StatusOK, zones[i])
				return nil
			}
		}
		return errNotFound
	})).Methods("GET")

	images := func(c cloud.Provider) cloud.ImageService { return c.Compute().Images() }
	router.HandleFunc("/compute/machine_images/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := images(c).List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/compute/machine_images/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.ImageCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		if opts.Name == "" || opts.InstanceID == "" {
			return requiredFields(map[string]string{"name": opts.Name, "instance_id": opts.InstanceID})
		}
		img, err := images(c).Create(r.Context(), opts)
		return respondItem(w, http.StatusCreated, img, err)
	})).Methods("POST")
	router.HandleFunc("/compute/machine_images/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		img, err := images(c).Get(r.Context(), pathVar(r, "id"))
		return respondItem(w, http.StatusOK, img, err)
	})).Methods("GET")
	router.HandleFunc("/compute/machine_images/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, images(c).Delete(r.Context(), pathVar(r, "id")))
	})).Methods("DELETE")

	router.HandleFunc("/compute/instance_types/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := c.Compute().InstanceTypes().List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/compute/instance_types/{name}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		found, err := c.Compute().InstanceTypes().FindByName(r.Context(), pathVar(r, "name"))
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return errNotFound
		}
		respondWithJSON(w, http.StatusOK, found[0])
		return nil
	})).Methods("GET")

	instances := func(c cloud.Provider) cloud.InstanceService { return c.Compute().Instances() }
	router.HandleFunc("/compute/instances/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := instances(c).List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/compute/instances/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.InstanceCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		if opts.Name == "" || opts.ImageID == "" || opts.InstanceType == "" {
			return requiredFields(map[string]string{"name": opts.Name, "image_id": opts.ImageID, "instance_type": opts.InstanceType})
		}
		inst, err := instances(c).Create(r.Context(), opts)
		return respondItem(w, http.StatusCreated, inst, err)
	})).Methods("POST")
	router.HandleFunc("/compute/instances/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		inst, err := instances(c).Get(r.Context(), pathVar(r, "id"))
		return respondItem(w, http.StatusOK, inst, err)
	})).Methods("GET")
	router.HandleFunc("/compute/instances/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, instances(c).Delete(r.Context(), pathVar(r, "id")))
	})).Methods("DELETE")
}
