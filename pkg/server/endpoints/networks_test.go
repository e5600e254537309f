package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

const networksRoot = "/api/v1/infrastructure/clouds/dummy/networks/"

func TestNetworkEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.clouds.On("GetCloud", "dummy").Return(dummyCloud(), nil)
	token := env.login(t, alice)

	w := env.do("POST", networksRoot, map[string]string{"name": "lab", "cidr_block": "10.1.0.0/16"}, token, awsHeaders...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var network cloud.Network
	decodeBody(t, w, &network)
	require.NotEmpty(t, network.ID)
	assert.Equal(t, "lab", network.Name)

	w = env.do("POST", networksRoot+network.ID+"/subnets/", map[string]string{"name": "lab-a", "cidr_block": "10.1.1.0/24"}, token, awsHeaders...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var subnet cloud.Subnet
	decodeBody(t, w, &subnet)
	assert.Equal(t, network.ID, subnet.NetworkID)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
		has    string
	}{
		{"list networks", "GET", networksRoot, nil, http.StatusOK, `"name":"lab"`},
		{"get network", "GET", networksRoot + network.ID + "/", nil, http.StatusOK, `"cidr_block":"10.1.0.0/16"`},
		{"missing network", "GET", networksRoot + "net-missing/", nil, http.StatusNotFound, ""},
		{"network without name", "POST", networksRoot, map[string]string{"cidr_block": "10.2.0.0/16"}, http.StatusBadRequest, `"name"`},
		{"list subnets of network", "GET", networksRoot + network.ID + "/subnets/", nil, http.StatusOK, `"name":"lab-a"`},
		{"subnet without cidr", "POST", networksRoot + network.ID + "/subnets/", map[string]string{"name": "x"}, http.StatusBadRequest, `"cidr_block"`},
		{"subnet under wrong network", "GET", networksRoot + "net-default/subnets/" + subnet.ID + "/", nil, http.StatusNotFound, ""},
		{"rename under wrong network", "PUT", networksRoot + "net-default/subnets/" + subnet.ID + "/", map[string]string{"name": "moved"}, http.StatusNotFound, ""},
		{"rename without name", "PUT", networksRoot + network.ID + "/subnets/" + subnet.ID + "/", map[string]string{}, http.StatusBadRequest, ""},
		{"rename subnet", "PUT", networksRoot + network.ID + "/subnets/" + subnet.ID + "/", map[string]string{"name": "lab-b"}, http.StatusOK, `"name":"lab-b"`},
		{"get renamed subnet", "GET", networksRoot + network.ID + "/subnets/" + subnet.ID + "/", nil, http.StatusOK, `"name":"lab-b"`},
		{"delete subnet", "DELETE", networksRoot + network.ID + "/subnets/" + subnet.ID + "/", nil, http.StatusNoContent, ""},
		{"deleted subnet", "GET", networksRoot + network.ID + "/subnets/" + subnet.ID + "/", nil, http.StatusNotFound, ""},
		{"delete network", "DELETE", networksRoot + network.ID + "/", nil, http.StatusNoContent, ""},
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
