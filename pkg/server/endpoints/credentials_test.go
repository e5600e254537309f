package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

func awsCloud() *model.Cloud {
	return &model.Cloud{Slug: "aws-us-east-1", Name: "AWS US East", Kind: model.CloudKindAWS}
}

func storedAWSCredentials() *model.Credentials {
	return &model.Credentials{
		ID:              4,
		Name:            "work",
		Kind:            model.CloudKindAWS,
		CloudSlug:       "aws-us-east-1",
		UserProfileSlug: "alice",
		AccessKey:       "AKIA",
		SecretKey:       "s3cr3t",
	}
}

func TestCredentialsRoot(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/v1/auth/user/credentials/", nil, env.login(t, alice))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"aws":"http://example.com/api/v1/auth/user/credentials/aws/",
		"openstack":"http://example.com/api/v1/auth/user/credentials/openstack/"
	}`, w.Body.String())

	w = env.do("GET", "/api/v1/auth/user/credentials/azure/", nil, env.login(t, alice))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCredentialsMasksSecrets(t *testing.T) {
	env := newTestEnv(t)
	env.creds.On("ListCredentials", "alice", model.CloudKindAWS).
		Return([]model.Credentials{*storedAWSCredentials()}, nil)

	w := env.do("GET", "/api/v1/auth/user/credentials/aws/", nil, env.login(t, alice))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "s3cr3t")
	assert.Contains(t, w.Body.String(), `"secret_key":"********"`)
	assert.Contains(t, w.Body.String(), `"access_key":"AKIA"`)
}

func TestGetCredentialsOfOtherKind(t *testing.T) {
	env := newTestEnv(t)
	env.creds.On("GetCredentials", "alice", uint(4)).Return(storedAWSCredentials(), nil)
	token := env.login(t, alice)

	w := env.do("GET", "/api/v1/auth/user/credentials/aws/4/", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/api/v1/auth/user/credentials/openstack/4/", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "aws-us-east-1").Return(awsCloud(), nil)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	env.clouds.On("GetCloud", "nowhere").Return(nil, store.ErrNotFound)
	env.creds.On("CreateCredentials", mock.MatchedBy(func(c *model.Credentials) bool {
		return c.Kind == model.CloudKindAWS && c.UserProfileSlug == "alice" && c.SecretKey == "s3cr3t"
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*model.Credentials).ID = 9
	}).Return(nil)
	token := env.login(t, alice)

	body := map[string]interface{}{
		"name": "work", "cloud": "aws-us-east-1", "access_key": "AKIA", "secret_key": "s3cr3t", "default": true,
	}
	w := env.do("POST", "/api/v1/auth/user/credentials/aws/", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":9`)
	assert.NotContains(t, w.Body.String(), "s3cr3t")

	body["cloud"] = "dummy"
	w = env.do("POST", "/api/v1/auth/user/credentials/aws/", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "does not accept aws credentials")

	body["cloud"] = "nowhere"
	w = env.do("POST", "/api/v1/auth/user/credentials/aws/", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/api/v1/auth/user/credentials/aws/", map[string]string{"name": "work", "cloud": "aws-us-east-1"}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "secret_key")

	env.creds.AssertNumberOfCalls(t, "CreateCredentials", 1)
}

func TestUpdateCredentialsKeepsMaskedSecret(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "aws-us-east-1").Return(awsCloud(), nil)
	env.creds.On("GetCredentials", "alice", uint(4)).Return(storedAWSCredentials(), nil)
	env.creds.On("UpdateCredentials", mock.MatchedBy(func(c *model.Credentials) bool {
		return c.ID == 4 && c.Name == "personal" && c.SecretKey == "s3cr3t" && c.UserProfileSlug == "alice"
	})).Return(nil)

	w := env.do("PUT", "/api/v1/auth/user/credentials/aws/4/", map[string]interface{}{
		"id": 99, "name": "personal", "secret_key": "********",
	}, env.login(t, alice))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"name":"personal"`)
	env.creds.AssertExpectations(t)
}

func TestDeleteCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.creds.On("GetCredentials", "alice", uint(4)).Return(storedAWSCredentials(), nil)
	env.creds.On("GetCredentials", "alice", uint(5)).Return(nil, store.ErrNotFound)
	env.creds.On("DeleteCredentials", "alice", uint(4)).Return(nil)
	token := env.login(t, alice)

	w := env.do("DELETE", "/api/v1/auth/user/credentials/aws/4/", nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("DELETE", "/api/v1/auth/user/credentials/aws/5/", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env.creds.AssertNumberOfCalls(t, "DeleteCredentials", 1)
}
