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

func galaxyApp() *model.Application {
	return &model.Application{
		Slug:        "galaxy",
		Name:        "Galaxy",
		Summary:     "Data analysis platform",
		Description: "A **web** platform",
		Versions: []model.ApplicationVersion{
			{ID: 4, ApplicationSlug: "galaxy", Version: "19.01", BackendComponentName: "base_vm_app"},
		},
	}
}

func TestListApplications(t *testing.T) {
	env := newTestEnv(t)
	env.apps.On("ListApplications", store.Page{Offset: 0, Limit: 10}).
		Return([]model.Application{*galaxyApp()}, int64(1), nil)

	w := env.do("GET", "/api/v1/applications/", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Count   int64                 `json:"count"`
		Next    *string               `json:"next"`
		Results []ApplicationResponse `json:"results"`
	}
	decodeBody(t, w, &page)
	assert.Equal(t, int64(1), page.Count)
	assert.Nil(t, page.Next)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "galaxy", page.Results[0].Slug)
	assert.Contains(t, page.Results[0].DescriptionHTML, "<strong>web</strong>")
}

func TestGetApplication(t *testing.T) {
	env := newTestEnv(t)
	env.apps.On("GetApplication", "galaxy").Return(galaxyApp(), nil)
	env.apps.On("GetApplication", "nope").Return(nil, store.ErrNotFound)

	w := env.do("GET", "/api/v1/applications/galaxy/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"19.01"`)

	w = env.do("GET", "/api/v1/applications/nope/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not found."}`, w.Body.String())
}

func TestApplicationWritesRequireStaff(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"name": "Galaxy"}

	w := env.do("POST", "/api/v1/applications/", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/v1/applications/", body, env.login(t, alice))
	assert.Equal(t, http.StatusForbidden, w.Code)
	env.apps.AssertNotCalled(t, "CreateApplication", mock.Anything)
}

func TestCreateApplication(t *testing.T) {
	env := newTestEnv(t)
	env.apps.On("CreateApplication", mock.MatchedBy(func(app *model.Application) bool {
		return app.Name == "Galaxy" && len(app.Versions) == 1
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*model.Application).Slug = "galaxy"
	}).Return(nil)

	w := env.do("POST", "/api/v1/applications/", map[string]interface{}{
		"name":     "Galaxy",
		"versions": []map[string]string{{"version": "19.01"}},
	}, env.login(t, admin))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"slug":"galaxy"`)
}

func TestUpdateApplicationKeepsSlug(t *testing.T) {
	env := newTestEnv(t)
	env.apps.On("GetApplication", "galaxy").Return(galaxyApp(), nil)
	env.apps.On("UpdateApplication", mock.MatchedBy(func(app *model.Application) bool {
		return app.Slug == "galaxy" && app.Summary == "Updated"
	})).Return(nil)

	w := env.do("PATCH", "/api/v1/applications/galaxy/", map[string]string{
		"slug":    "renamed",
		"summary": "Updated",
	}, env.login(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"slug":"galaxy"`)
	env.apps.AssertExpectations(t)
}

func TestDeleteApplication(t *testing.T) {
	env := newTestEnv(t)
	env.apps.On("DeleteApplication", "galaxy").Return(nil)

	w := env.do("DELETE", "/api/v1/applications/galaxy/", nil, env.login(t, admin))
	assert.Equal(t, http.StatusNoContent, w.Code)
	env.apps.AssertExpectations(t)
}
