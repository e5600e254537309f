package endpoints

import (
	"errors"
	"net/http"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/audit"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/identity"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// credentialKinds are the cloud kinds a user can store credentials for.
var credentialKinds = []model.CloudKind{model.CloudKindAWS, model.CloudKindOpenStack}

// RegisterCredentialsEndpoints registers the caller's stored cloud
// credentials, one collection per cloud kind.
func RegisterCredentialsEndpoints(s *server.Server) {
	creds := s.CredentialsStore
	clouds := s.CloudsStore

	r := s.API.PathPrefix("/auth/user/credentials").Subrouter()
	r.Use(s.Auth.Middleware)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(credentialKinds))
		for _, k := range credentialKinds {
			names = append(names, string(k))
		}
		respondWithJSON(w, http.StatusOK, links(r, "/auth/user/credentials/", names...))
	}).Methods("GET")

	kind := "{kind:aws|openstack}"
	r.HandleFunc("/"+kind+"/", handleListCredentials(creds)).Methods("GET")
	r.HandleFunc("/"+kind+"/", handleCreateCredentials(creds, clouds)).Methods("POST")
	r.HandleFunc("/"+kind+"/{id:[0-9]+}/", handleGetCredentials(creds)).Methods("GET")
	r.HandleFunc("/"+kind+"/{id:[0-9]+}/", handleUpdateCredentials(creds, clouds)).Methods("PUT", "PATCH")
	r.HandleFunc("/"+kind+"/{id:[0-9]+}/", handleDeleteCredentials(creds)).Methods("DELETE")
}

func kindVar(r *http.Request) model.CloudKind {
	return model.CloudKind(pathVar(r, "kind"))
}

// loadCredentials fetches the caller's credentials named by the route. A row
// of another kind is reported as not found.
func loadCredentials(r *http.Request, creds store.CredentialsStore, id *identity.Identity) (*model.Credentials, error) {
	credsID, err := uintVar(r, "id")
	if err != nil {
		return nil, errNotFound
	}
	c, err := creds.GetCredentials(id.ProfileSlug(), credsID)
	if err != nil {
		return nil, err
	}
	if c.Kind != kindVar(r) {
		return nil, errNotFound
	}
	return c, nil
}

// checkCredentialsCloud requires the target cloud to exist and to be of the
// same kind as the credentials.
func checkCredentialsCloud(clouds store.CloudsStore, c *model.Credentials) error {
	if c.CloudSlug == "" {
		return fieldError("cloud", "This field is required.")
	}
	cl, err := clouds.GetCloud(c.CloudSlug)
	if errors.Is(err, store.ErrNotFound) {
		return fieldError("cloud", "Invalid cloud \""+c.CloudSlug+"\" - object does not exist.")
	}
	if err != nil {
		return err
	}
	if cl.Kind != c.Kind {
		return fieldError("cloud", "Cloud \""+c.CloudSlug+"\" does not accept "+string(c.Kind)+" credentials.")
	}
	return nil
}

func handleListCredentials(creds store.CredentialsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		list, err := creds.ListCredentials(id.ProfileSlug(), kindVar(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]model.Credentials, 0, len(list))
		for _, c := range list {
			out = append(out, c.Masked())
		}
		respondWithJSON(w, http.StatusOK, out)
	}
}

func handleGetCredentials(creds store.CredentialsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		c, err := loadCredentials(r, creds, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, c.Masked())
	}
}

func credentialsEvent(id *identity.Identity, c *model.Credentials, op string, err error) audit.CredentialsEvent {
	event := audit.CredentialsEvent{
		User:          id.Username,
		ClientIP:      remoteIP(id),
		CredentialsID: c.ID,
		Cloud:         c.CloudSlug,
		Operation:     op,
		Success:       err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	return event
}

func handleCreateCredentials(creds store.CredentialsStore, clouds store.CloudsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())

		var c model.Credentials
		if err := decodeJSON(r, &c); err != nil {
			writeError(w, r, err)
			return
		}
		c.ID = 0
		c.Kind = kindVar(r)
		c.UserProfileSlug = id.ProfileSlug()

		err := checkCredentialsCloud(clouds, &c)
		if err == nil {
			err = c.Validate()
		}
		if err == nil {
			err = creds.CreateCredentials(&c)
		}
		audit.Log(credentialsEvent(id, &c, "create", err))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, c.Masked())
	}
}

// handleUpdateCredentials decodes the body over the stored row. A masked
// secret sent back unchanged keeps the stored value.
func handleUpdateCredentials(creds store.CredentialsStore, clouds store.CloudsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		c, err := loadCredentials(r, creds, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		stored := *c

		if err := decodeJSON(r, c); err != nil {
			writeError(w, r, err)
			return
		}
		c.ID = stored.ID
		c.Kind = stored.Kind
		c.UserProfileSlug = stored.UserProfileSlug
		c.Added = stored.Added
		if c.SecretKey == model.MaskedValue {
			c.SecretKey = stored.SecretKey
		}
		if c.Password == model.MaskedValue {
			c.Password = stored.Password
		}

		err = checkCredentialsCloud(clouds, c)
		if err == nil {
			err = c.Validate()
		}
		if err == nil {
			err = creds.UpdateCredentials(c)
		}
		audit.Log(credentialsEvent(id, c, "update", err))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, c.Masked())
	}
}

func handleDeleteCredentials(creds store.CredentialsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		c, err := loadCredentials(r, creds, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		err = creds.DeleteCredentials(id.ProfileSlug(), c.ID)
		audit.Log(credentialsEvent(id, c, "delete", err))
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
