package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/audit"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud/memory"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/geolocation"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/tasks"
)

func TestMain(m *testing.M) {
	audit.SetEnabled(false)
	os.Exit(m.Run())
}

// stubLocator answers geolocation lookups from a fixed table.
type stubLocator struct {
	locations map[string]*geolocation.Location
}

func (s *stubLocator) Locate(ctx context.Context, host string) (*geolocation.Location, error) {
	if loc, ok := s.locations[host]; ok {
		return loc, nil
	}
	return nil, geolocation.ErrLookupFailed
}

// testEnv is a server wired to mock stores, the in-memory cloud and the
// in-memory task queue.
type testEnv struct {
	srv     *server.Server
	handler http.Handler

	apps        *MockApplicationsStore
	clouds      *MockCloudsStore
	deployments *MockDeploymentsStore
	users       *MockUsersStore
	creds       *MockCredentialsStore
	services    *MockPublicServicesStore
	health      *MockHealthStore

	provider *memory.Provider
	broker   *tasks.MemoryBroker
	results  *tasks.MemoryResults
	issuer   *auth.TokenIssuer
	locator  *stubLocator
}

func testConfig() *config.Config {
	return &config.Config{
		PageSize:           10,
		PageSizeMax:        100,
		TokenTTL:           3600,
		GeolocationEnabled: true,
	}
}

func newTestEnv(t *testing.T, opts ...func(*server.Options)) *testEnv {
	t.Helper()

	cipher, err := encryption.NewAESGCM(make([]byte, 32))
	require.NoError(t, err)

	env := &testEnv{
		apps:        &MockApplicationsStore{},
		clouds:      &MockCloudsStore{},
		deployments: &MockDeploymentsStore{},
		users:       &MockUsersStore{},
		creds:       &MockCredentialsStore{},
		services:    &MockPublicServicesStore{},
		health:      &MockHealthStore{},
		provider:    memory.New(),
		broker:      tasks.NewMemoryBroker(8),
		results:     tasks.NewMemoryResults(),
		issuer:      auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour),
		locator:     &stubLocator{locations: map[string]*geolocation.Location{}},
	}

	clouds := cloud.NewRegistry()
	clouds.Register(memory.Kind, func(ctx context.Context, spec cloud.Spec, creds cloud.Credentials) (cloud.Provider, error) {
		return env.provider, nil
	})

	options := server.Options{
		Config:  testConfig(),
		Cipher:  cipher,
		Issuer:  env.issuer,
		Clouds:  clouds,
		Broker:  env.broker,
		Results: env.results,
		Locator: env.locator,
	}
	for _, opt := range opts {
		opt(&options)
	}
	s := server.NewServer(options, "127.0.0.1", "0")
	s.ApplicationsStore = env.apps
	s.CloudsStore = env.clouds
	s.DeploymentsStore = env.deployments
	s.UsersStore = env.users
	s.CredentialsStore = env.creds
	s.PublicServicesStore = env.services
	s.HealthStore = env.health
	s.Auth.Users = env.users

	RegisterAll(s)
	env.srv = s
	env.handler = s.Handler()
	return env
}

// login issues a token for u and teaches the users mock to accept it.
func (e *testEnv) login(t *testing.T, u *model.User) string {
	t.Helper()
	token, record, err := e.issuer.Issue(u)
	require.NoError(t, err)
	e.users.On("GetToken", record.JTI).Return(record, nil)
	e.users.On("GetUser", u.ID).Return(u, nil)
	return "Token " + token
}

func (e *testEnv) do(method, path string, body interface{}, authz string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

var (
	alice = &model.User{ID: 1, Username: "alice", Email: "alice@example.org"}
	admin = &model.User{ID: 2, Username: "admin", IsStaff: true}
)

func dummyCloud() *model.Cloud {
	return &model.Cloud{Slug: "dummy", Name: "Dummy", Kind: model.CloudKindDummy}
}
