package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

// maxUploadSize bounds object uploads.
const maxUploadSize = 64 << 20

func registerBlockStoreEndpoints(router *mux.Router, p *providerResolver) {
	router.HandleFunc("/block_store/", linksHandler("volumes", "snapshots")).Methods("GET")

	volumes := func(c cloud.Provider) cloud.VolumeService { return c.BlockStore().Volumes() }
	router.HandleFunc("/block_store/volumes/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := volumes(c).List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/block_store/volumes/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.VolumeCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		if opts.Name == "" || opts.Size <= 0 || opts.Zone == "" {
			return requiredFields(map[string]string{"name": opts.Name, "size": positive(opts.Size), "zone_id": opts.Zone})
		}
		v, err := volumes(c).Create(r.Context(), opts)
		return respondItem(w, http.StatusCreated, v, err)
	})).Methods("POST")
	router.HandleFunc("/block_store/volumes/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		v, err := volumes(c).Get(r.Context(), pathVar(r, "id"))
		return respondItem(w, http.StatusOK, v, err)
	})).Methods("GET")
	router.HandleFunc("/block_store/volumes/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, volumes(c).Delete(r.Context(), pathVar(r, "id")))
	})).Methods("DELETE")

	snapshots := func(c cloud.Provider) cloud.SnapshotService { return c.BlockStore().Snapshots() }
	router.HandleFunc("/block_store/snapshots/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := snapshots(c).List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/block_store/snapshots/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.SnapshotCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		if opts.Name == "" || opts.VolumeID == "" {
			return requiredFields(map[string]string{"name": opts.Name, "volume_id": opts.VolumeID})
		}
		snap, err := snapshots(c).Create(r.Context(), opts)
		return respondItem(w, http.StatusCreated, snap, err)
	})).Methods("POST")
	router.HandleFunc("/block_store/snapshots/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		snap, err := snapshots(c).Get(r.Context(), pathVar(r, "id"))
		return respondItem(w, http.StatusOK, snap, err)
	})).Methods("GET")
	router.HandleFunc("/block_store/snapshots/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, snapshots(c).Delete(r.Context(), pathVar(r, "id")))
	})).Methods("DELETE")
}

func registerObjectStoreEndpoints(router *mux.Router, p *providerResolver) {
	router.HandleFunc("/object_store/", linksHandler("buckets")).Methods("GET")

	buckets := func(c cloud.Provider) cloud.ObjectStoreService { return c.ObjectStore() }
	router.HandleFunc("/object_store/buckets/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := buckets(c).List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/object_store/buckets/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &body); err != nil {
			return err
		}
		if body.Name == "" {
			return requiredFields(map[string]string{"name": ""})
		}
		b, err := buckets(c).Create(r.Context(), body.Name)
		return respondItem(w, http.StatusCreated, b, err)
	})).Methods("POST")
	router.HandleFunc("/object_store/buckets/{bucket}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		b, err := buckets(c).Get(r.Context(), pathVar(r, "bucket"))
		return respondItem(w, http.StatusOK, b, err)
	})).Methods("GET")
	router.HandleFunc("/object_store/buckets/{bucket}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, buckets(c).Delete(r.Context(), pathVar(r, "bucket")))
	})).Methods("DELETE")

	objects := func(c cloud.Provider) cloud.ObjectService { return c.ObjectStore().Objects() }
	router.HandleFunc("/object_store/buckets/{bucket}/objects/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := objects(c).List(r.Context(), pathVar(r, "bucket"))
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/object_store/buckets/{bucket}/objects/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return uploadObject(w, r, objects(c))
	})).Methods("POST")
	router.HandleFunc("/object_store/buckets/{bucket}/objects/{object:.+}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		obj, err := objects(c).Get(r.Context(), pathVar(r, "bucket"), pathVar(r, "object"))
		return respondItem(w, http.StatusOK, obj, err)
	})).Methods("GET")
	router.HandleFunc("/object_store/buckets/{bucket}/objects/{object:.+}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, objects(c).Delete(r.Context(), pathVar(r, "bucket"), pathVar(r, "object")))
	})).Methods("DELETE")
}

// uploadObject reads a multipart form with the object key in "name" and
// its content in the "upload_content" file field.
func uploadObject(w http.ResponseWriter, r *http.Request, objects cloud.ObjectService) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return badRequest("Expected a multipart upload: %s", err.Error())
	}
	file, header, err := r.FormFile("upload_content")
	if err != nil {
		return requiredFields(map[string]string{"upload_content": ""})
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	if name == "" {
		return requiredFields(map[string]string{"name": ""})
	}
	obj, err := objects.Upload(r.Context(), pathVar(r, "bucket"), name, file, header.Size)
	return respondItem(w, http.StatusCreated, obj, err)
}
