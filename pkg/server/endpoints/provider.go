package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/identity"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// Credential headers a client may send instead of relying on stored
// credentials.
const (
	HeaderCredentialsID        = "cl-credentials-id"
	HeaderAWSAccessKey         = "cl-aws-access-key"
	HeaderAWSSecretKey         = "cl-aws-secret-key"
	HeaderOSUsername           = "cl-os-username"
	HeaderOSPassword           = "cl-os-password"
	HeaderOSTenantName         = "cl-os-tenant-name"
	HeaderOSProjectName        = "cl-os-project-name"
	HeaderOSProjectDomainName  = "cl-os-project-domain-name"
	HeaderOSUserDomainName     = "cl-os-user-domain-name"
	HeaderOSIdentityAPIVersion = "cl-os-identity-api-version"
)

func credentialsFromHeaders(h http.Header) cloud.Credentials {
	return cloud.Credentials{
		AWSAccessKey:         h.Get(HeaderAWSAccessKey),
		AWSSecretKey:         h.Get(HeaderAWSSecretKey),
		OSUsername:           h.Get(HeaderOSUsername),
		OSPassword:           h.Get(HeaderOSPassword),
		OSTenantName:         h.Get(HeaderOSTenantName),
		OSProjectName:        h.Get(HeaderOSProjectName),
		OSProjectDomainName:  h.Get(HeaderOSProjectDomainName),
		OSUserDomainName:     h.Get(HeaderOSUserDomainName),
		OSIdentityAPIVersion: h.Get(HeaderOSIdentityAPIVersion),
	}
}

// providerResolver turns a request into a provider handle for one cloud.
type providerResolver struct {
	clouds      store.CloudsStore
	credentials store.CredentialsStore
	registry    *cloud.Registry
}

func newProviderResolver(s *server.Server) *providerResolver {
	return &providerResolver{clouds: s.CloudsStore, credentials: s.CredentialsStore, registry: s.Clouds}
}

// credentialsFor picks the credentials for cloudSlug: request headers
// first, then the stored credentials named by cl-credentials-id, then the
// caller's default for that cloud.
func (p *providerResolver) credentialsFor(r *http.Request, cloudSlug string) (cloud.Credentials, error) {
	if creds := credentialsFromHeaders(r.Header); !creds.Empty() {
		return creds, nil
	}

	id, ok := identity.Get(r.Context())
	if !ok {
		return cloud.Credentials{}, errNoCredentials(cloudSlug)
	}

	var stored *model.Credentials
	var err error
	if v := r.Header.Get(HeaderCredentialsID); v != "" {
		credsID, perr := strconv.ParseUint(v, 10, 64)
		if perr != nil {
			return cloud.Credentials{}, badRequest("Invalid %s header.", HeaderCredentialsID)
		}
		stored, err = p.credentials.GetCredentials(id.ProfileSlug(), uint(credsID))
	} else {
		stored, err = p.credentials.FindDefaultCredentials(id.ProfileSlug(), cloudSlug)
	}
	if errors.Is(err, store.ErrNotFound) {
		return cloud.Credentials{}, errNoCredentials(cloudSlug)
	}
	if err != nil {
		return cloud.Credentials{}, err
	}
	return stored.CloudCredentials(), nil
}

func errNoCredentials(cloudSlug string) error {
	return badRequest("No credentials found for cloud %s", cloudSlug)
}

// resolve loads the cloud named in the route and opens a provider for it.
func (p *providerResolver) resolve(r *http.Request) (cloud.Provider, *model.Cloud, error) {
	c, err := p.clouds.GetCloud(pathVar(r, "cloud"))
	if err != nil {
		return nil, nil, err
	}
	creds, err := p.credentialsFor(r, c.Slug)
	if err != nil {
		return nil, nil, err
	}
	provider, err := p.open(r.Context(), c, creds)
	if err != nil {
		return nil, nil, err
	}
	return provider, c, nil
}

func (p *providerResolver) open(ctx context.Context, c *model.Cloud, creds cloud.Credentials) (cloud.Provider, error) {
	provider, err := p.registry.Open(ctx, c.Spec(), creds)
	if err != nil {
		return nil, fmt.Errorf("cloud %s: %w", c.Slug, err)
	}
	return provider, nil
}

// providerHandler is a handler that runs against a resolved provider.
type providerHandler func(w http.ResponseWriter, r *http.Request, p cloud.Provider) error

// withProvider resolves the provider for the route's cloud before calling
// h, and writes any error h returns.
func (p *providerResolver) withProvider(h providerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, _, err := p.resolve(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := h(w, r, provider); err != nil {
			writeError(w, r, err)
		}
	}
}
