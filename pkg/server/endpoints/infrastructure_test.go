package endpoints

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// awsHeaders are per-request credentials, which take precedence over
// stored ones.
var awsHeaders = []string{HeaderAWSAccessKey, "AKIA", HeaderAWSSecretKey, "s3cr3t"}

func TestInfrastructureRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/v1/infrastructure/clouds/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token", w.Header().Get("WWW-Authenticate"))
}

func TestListClouds(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("ListClouds", store.Page{Offset: 0, Limit: 10}).
		Return([]model.Cloud{*dummyCloud()}, int64(1), nil)

	w := env.do("GET", "/api/v1/infrastructure/clouds/", nil, env.login(t, alice))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Results []CloudResponse `json:"results"`
	}
	decodeBody(t, w, &page)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "http://example.com/api/v1/infrastructure/clouds/dummy/compute/", page.Results[0].Links["compute"])
	assert.Len(t, page.Results[0].Links, 6)
}

func TestCloudWrites(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	env.clouds.On("UpdateCloud", mock.MatchedBy(func(c *model.Cloud) bool {
		return c.Slug == "dummy" && c.Kind == model.CloudKindDummy && c.Name == "Renamed"
	})).Return(nil)

	w := env.do("PUT", "/api/v1/infrastructure/clouds/dummy/", map[string]string{"name": "Renamed", "kind": "aws"}, env.login(t, alice))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("PUT", "/api/v1/infrastructure/clouds/dummy/", map[string]string{"name": "Renamed", "kind": "aws"}, env.login(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"kind":"dummy"`)
	env.clouds.AssertExpectations(t)
}

func TestComputeWithHeaderCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	token := env.login(t, alice)

	w := env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/infrastructure/clouds/dummy/compute/instance_types/")

	w = env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/regions/", nil, token, awsHeaders...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var regions []cloud.Region
	decodeBody(t, w, &regions)
	require.Len(t, regions, 1)
	assert.Equal(t, "region-1", regions[0].ID)

	w = env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/regions/region-1/zones/zone-1b/", nil, token, awsHeaders...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"zone-1b"`)

	w = env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/regions/region-1/zones/zone-9/", nil, token, awsHeaders...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/instance_types/m1.large/", nil, token, awsHeaders...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"m1.large"`)

	env.creds.AssertNotCalled(t, "FindDefaultCredentials", mock.Anything, mock.Anything)
}

func TestComputeWithStoredCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	env.creds.On("FindDefaultCredentials", "alice", "dummy").
		Return(&model.Credentials{ID: 3, Kind: model.CloudKindDummy, CloudSlug: "dummy"}, nil)
	env.creds.On("GetCredentials", "alice", uint(9)).Return(nil, store.ErrNotFound)
	token := env.login(t, alice)

	w := env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/machine_images/", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "img-ubuntu")

	w = env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/machine_images/", nil, token, HeaderCredentialsID, "9")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"No credentials found for cloud dummy"}`, w.Body.String())

	w = env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/machine_images/", nil, token, HeaderCredentialsID, "x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComputeWithoutCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	env.clouds.On("GetCloud", "missing").Return(nil, store.ErrNotFound)
	env.creds.On("FindDefaultCredentials", "alice", "dummy").Return(nil, store.ErrNotFound)
	token := env.login(t, alice)

	w := env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/regions/", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/v1/infrastructure/clouds/missing/compute/regions/", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProviderErrors(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	token := env.login(t, alice)

	env.provider.FailOn("regions.list", fmt.Errorf("ec2: %w", cloud.ErrAuthentication))
	w := env.do("GET", "/api/v1/infrastructure/clouds/dummy/compute/regions/", nil, token, awsHeaders...)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.do("GET", "/api/v1/infrastructure/clouds/dummy/security/keypairs/kp-unknown/", nil, token, awsHeaders...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSecurityEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	token := env.login(t, alice)
	base := "/api/v1/infrastructure/clouds/dummy/security/"

	w := env.do("POST", base+"keypairs/", map[string]string{}, token, awsHeaders...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"name":["This field is required."]}`, w.Body.String())

	w = env.do("POST", base+"keypairs/", map[string]string{"name": "galaxy-key"}, token, awsHeaders...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var kp cloud.KeyPair
	decodeBody(t, w, &kp)
	assert.Equal(t, "galaxy-key", kp.Name)
	assert.NotEmpty(t, kp.Material)

	w = env.do("GET", base+"keypairs/", nil, token, awsHeaders...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "galaxy-key")

	w = env.do("DELETE", base+"keypairs/"+kp.ID+"/", nil, token, awsHeaders...)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("POST", base+"security_groups/", map[string]string{"name": "web", "description": "Web"}, token, awsHeaders...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sg cloud.SecurityGroup
	decodeBody(t, w, &sg)

	w = env.do("POST", base+"security_groups/"+sg.ID+"/rules/", map[string]interface{}{"ip_protocol": "tcp", "from_port": 80, "to_port": 80}, token, awsHeaders...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cidr_ip")
}

func TestObjectUpload(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	token := env.login(t, alice)
	base := "/api/v1/infrastructure/clouds/dummy/object_store/buckets/"

	w := env.do("POST", base, map[string]string{"name": "data"}, token, awsHeaders...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("name", "runs/2019/out.txt"))
	part, err := form.CreateFormFile("upload_content", "out.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest("POST", base+"data/objects/", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", token)
	req.Header.Set(HeaderAWSAccessKey, "AKIA")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	w = env.do("GET", base+"data/objects/runs/2019/out.txt/", nil, token, awsHeaders...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var obj cloud.Object
	decodeBody(t, w, &obj)
	assert.Equal(t, int64(5), obj.Size)

	w = env.do("DELETE", base+"data/objects/runs/2019/out.txt/", nil, token, awsHeaders...)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
