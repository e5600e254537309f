package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

func registerNetworkEndpoints(router *mux.Router, p *providerResolver) {
	router.HandleFunc("/networks/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := c.Network().List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/networks/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.NetworkCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		if opts.Name == "" {
			return requiredFields(map[string]string{"name": ""})
		}
		n, err := c.Network().Create(r.Context(), opts)
		return respondItem(w, http.StatusCreated, n, err)
	})).Methods("POST")
	router.HandleFunc("/networks/{network}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		n, err := c.Network().Get(r.Context(), pathVar(r, "network"))
		return respondItem(w, http.StatusOK, n, err)
	})).Methods("GET")
	router.HandleFunc("/networks/{network}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, c.Network().Delete(r.Context(), pathVar(r, "network")))
	})).Methods("DELETE")

	subnets := func(c cloud.Provider) cloud.SubnetService { return c.Network().Subnets() }
	router.HandleFunc("/networks/{network}/subnets/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := subnets(c).List(r.Context(), pathVar(r, "network"))
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/networks/{network}/subnets/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.SubnetCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		opts.NetworkID = pathVar(r, "network")
		if opts.CIDR == "" {
			return requiredFields(map[string]string{"cidr_block": ""})
		}
		sn, err := subnets(c).Create(r.Context(), opts)
		return respondItem(w, http.StatusCreated, sn, err)
	})).Methods("POST")
	router.HandleFunc("/networks/{network}/subnets/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		sn, err := subnetOf(r, subnets(c))
		return respondItem(w, http.StatusOK, sn, err)
	})).Methods("GET")
	router.HandleFunc("/networks/{network}/subnets/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &body); err != nil {
			return err
		}
		if body.Name == "" {
			return requiredFields(map[string]string{"name": ""})
		}
		if _, err := subnetOf(r, subnets(c)); err != nil {
			return err
		}
		sn, err := subnets(c).Rename(r.Context(), pathVar(r, "id"), body.Name)
		return respondItem(w, http.StatusOK, sn, err)
	})).Methods("PUT")
	router.HandleFunc("/networks/{network}/subnets/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		if _, err := subnetOf(r, subnets(c)); err != nil {
			return err
		}
		return respondDeleted(w, subnets(c).Delete(r.Context(), pathVar(r, "id")))
	})).Methods("DELETE")
}

// subnetOf loads the subnet in the route and checks it belongs to the
// route's network.
func subnetOf(r *http.Request, subnets cloud.SubnetService) (*cloud.Subnet, error) {
	sn, err := subnets.Get(r.Context(), pathVar(r, "id"))
	if err != nil {
		return nil, err
	}
	if sn.NetworkID != pathVar(r, "network") {
		return nil, errNotFound
	}
	return sn, nil
}
