package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

const blockStoreRoot = "/api/v1/infrastructure/clouds/dummy/block_store/"

func TestBlockStoreEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	token := env.login(t, alice)

	w := env.do("POST", blockStoreRoot+"volumes/", map[string]interface{}{"name": "data", "size": 10, "zone_id": "zone-1a"}, token, awsHeaders...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var volume cloud.Volume
	decodeBody(t, w, &volume)
	require.NotEmpty(t, volume.ID)

	w = env.do("POST", blockStoreRoot+"snapshots/", map[string]string{"name": "data-snap", "volume_id": volume.ID}, token, awsHeaders...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var snapshot cloud.Snapshot
	decodeBody(t, w, &snapshot)
	assert.Equal(t, 10, snapshot.Size)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
		has    string
	}{
		{"links", "GET", blockStoreRoot, nil, http.StatusOK, "/block_store/snapshots/"},
		{"list volumes", "GET", blockStoreRoot + "volumes/", nil, http.StatusOK, `"name":"data"`},
		{"get volume", "GET", blockStoreRoot + "volumes/" + volume.ID + "/", nil, http.StatusOK, `"zone_id":"zone-1a"`},
		{"missing volume", "GET", blockStoreRoot + "volumes/vol-missing/", nil, http.StatusNotFound, ""},
		{"volume without size", "POST", blockStoreRoot + "volumes/", map[string]string{"name": "x", "zone_id": "zone-1a"}, http.StatusBadRequest, `"size"`},
		{"volume from missing snapshot", "POST", blockStoreRoot + "volumes/", map[string]interface{}{"name": "x", "size": 1, "zone_id": "zone-1a", "snapshot_id": "snap-missing"}, http.StatusNotFound, ""},
		{"list snapshots", "GET", blockStoreRoot + "snapshots/", nil, http.StatusOK, `"name":"data-snap"`},
		{"get snapshot", "GET", blockStoreRoot + "snapshots/" + snapshot.ID + "/", nil, http.StatusOK, volume.ID},
		{"snapshot of missing volume", "POST", blockStoreRoot + "snapshots/", map[string]string{"name": "x", "volume_id": "vol-missing"}, http.StatusNotFound, ""},
		{"snapshot without volume", "POST", blockStoreRoot + "snapshots/", map[string]string{"name": "x"}, http.StatusBadRequest, `"volume_id"`},
		{"delete snapshot", "DELETE", blockStoreRoot + "snapshots/" + snapshot.ID + "/", nil, http.StatusNoContent, ""},
		{"delete volume", "DELETE", blockStoreRoot + "volumes/" + volume.ID + "/", nil, http.StatusNoContent, ""},
		{"delete missing volume", "DELETE", blockStoreRoot + "volumes/" + volume.ID + "/", nil, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.body, token, awsHeaders...)
			require.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.has != "" {
				assert.Contains(t, w.Body.String(), tt.has)
			}
		})
	}
}
