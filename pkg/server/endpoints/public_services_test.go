package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/geolocation"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

func usegalaxy() *model.PublicService {
	return &model.PublicService{Slug: "usegalaxy", Name: "usegalaxy", Links: "https://usegalaxy.org"}
}

func TestListPublicServices(t *testing.T) {
	env := newTestEnv(t)
	env.services.On("ListPublicServices", store.Page{Offset: 0, Limit: 10}).
		Return([]model.PublicService{*usegalaxy()}, int64(1), nil)
	env.services.On("ListSponsors", store.Page{Offset: 0, Limit: 10}).
		Return([]model.Sponsor(nil), int64(0), nil)
	env.services.On("GetLocation", uint(3)).Return(&model.Location{ID: 3, City: "Baltimore"}, nil)

	w := env.do("GET", "/api/v1/public_services/", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"slug":"usegalaxy"`)

	w = env.do("GET", "/api/v1/public_services/sponsors/", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"count":0,"next":null,"previous":null,"results":[]}`, w.Body.String())

	w = env.do("GET", "/api/v1/public_services/locations/3/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Baltimore")
	env.services.AssertNotCalled(t, "GetPublicService", mock.Anything)
}

func TestCreatePublicServiceGeolocates(t *testing.T) {
	env := newTestEnv(t)
	env.locator.locations["usegalaxy.org"] = &geolocation.Location{Latitude: 39.29, Longitude: -76.61, City: "Baltimore", Country: "United States"}
	env.services.On("FindOrCreateLocation", mock.MatchedBy(func(l *model.Location) bool {
		return l.City == "Baltimore"
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*model.Location).ID = 3
	}).Return(nil)
	env.services.On("CreatePublicService", mock.MatchedBy(func(p *model.PublicService) bool {
		return p.LocationID != nil && *p.LocationID == 3
	})).Return(nil)

	w := env.do("POST", "/api/v1/public_services/", map[string]string{
		"name": "usegalaxy", "links": "https://usegalaxy.org/",
	}, env.login(t, admin))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"city":"Baltimore"`)
	env.services.AssertExpectations(t)
}

func TestCreatePublicServiceLookupFailure(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/v1/public_services/", map[string]string{
		"name": "nowhere", "links": "http://nowhere.invalid",
	}, env.login(t, admin))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	env.services.AssertNotCalled(t, "CreatePublicService", mock.Anything)
}

func TestCreatePublicServiceWithoutGeolocation(t *testing.T) {
	env := newTestEnv(t, func(o *server.Options) { o.Config.GeolocationEnabled = false })
	env.services.On("CreatePublicService", mock.MatchedBy(func(p *model.PublicService) bool {
		return p.LocationID == nil
	})).Return(nil)

	w := env.do("POST", "/api/v1/public_services/", map[string]string{
		"name": "nowhere", "links": "http://nowhere.invalid",
	}, env.login(t, admin))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestPublicServiceWritesRequireStaff(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("DELETE", "/api/v1/public_services/usegalaxy/", nil, env.login(t, alice))
	assert.Equal(t, http.StatusForbidden, w.Code)
	env.services.AssertNotCalled(t, "DeletePublicService", mock.Anything)
}

func TestUpdatePublicService(t *testing.T) {
	env := newTestEnv(t)
	svc := usegalaxy()
	loc := uint(3)
	svc.LocationID = &loc
	env.services.On("GetPublicService", "usegalaxy").Return(svc, nil)
	env.services.On("UpdatePublicService", mock.MatchedBy(func(p *model.PublicService) bool {
		return p.Slug == "usegalaxy" && p.Featured && p.LocationID != nil && *p.LocationID == 3
	})).Return(nil)

	w := env.do("PATCH", "/api/v1/public_services/usegalaxy/", map[string]interface{}{"featured": true}, env.login(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env.services.AssertNotCalled(t, "FindOrCreateLocation", mock.Anything)
	env.services.AssertExpectations(t)
}
