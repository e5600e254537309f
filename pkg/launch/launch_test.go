package launch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud/memory"
)

type recorder struct{ actions []string }

func (r *recorder) Progress(_ context.Context, action string) { r.actions = append(r.actions, action) }

func TestRegistryResolve(t *testing.T) {
	tests := []struct {
		name    string
		wantVM  bool
		wantErr bool
	}{
		{"BaseVMAppHandler", true, false},
		{"baselaunch.backend_plugins.base_vm_app.BaseVMAppPlugin", true, false},
		{"baselaunch.backend_plugins.app_plugin.BaseAppPlugin", false, false},
		{"baselaunch.backend_plugins.cloudman.CloudManAppPlugin", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := DefaultRegistry.Resolve(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownHandler)
				return
			}
			require.NoError(t, err)
			_, isVM := h.(*BaseVMAppHandler)
			assert.Equal(t, tt.wantVM, isVM)
		})
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("Custom", func() Handler { return &BaseAppHandler{} })
	r.Register("Custom", func() Handler { return &BaseVMAppHandler{} })

	h, err := r.Resolve("my.plugins.Custom")
	require.NoError(t, err)
	assert.IsType(t, &BaseVMAppHandler{}, h)
	assert.Equal(t, []string{"Custom"}, r.Names())
}

func TestMergeConfigs(t *testing.T) {
	app := map[string]interface{}{
		"config_cloudlaunch": map[string]interface{}{"keyPair": "app", "instanceType": "m1.small"},
		"config_appliance":   map[string]interface{}{"repository": "galaxy"},
	}
	version := map[string]interface{}{
		"config_cloudlaunch": map[string]interface{}{"instanceType": "m1.medium"},
	}
	request := map[string]interface{}{
		"config_cloudlaunch": map[string]interface{}{"placementZone": "zone-1b"},
		"config_appliance":   "replaced",
	}

	merged := MergeConfigs(app, version, nil, request)

	assert.Equal(t, map[string]interface{}{
		"keyPair":       "app",
		"instanceType":  "m1.medium",
		"placementZone": "zone-1b",
	}, merged["config_cloudlaunch"])
	assert.Equal(t, "replaced", merged["config_appliance"])
	assert.Equal(t, "m1.small", app["config_cloudlaunch"].(map[string]interface{})["instanceType"], "inputs are not modified")
}

func launchRequest(p cloud.Provider, lc map[string]interface{}) Request {
	return Request{
		Name:        "galaxy-test",
		CloudConfig: CloudConfig{CloudSlug: "dummy", ImageID: "img-ubuntu", DefaultInstanceType: "m1.small"},
		Provider:    p,
		AppConfig:   map[string]interface{}{"config_cloudlaunch": lc},
		UserData:    map[string]interface{}{"galaxy": map[string]interface{}{"admin": "admin@example.org"}},
	}
}

func TestBaseVMAppLaunch(t *testing.T) {
	ctx := context.Background()
	p := memory.New()
	rec := &recorder{}

	lc := map[string]interface{}{
		"instanceType":  "m1.large",
		"placementZone": "zone-1a",
		"firewall": []interface{}{
			map[string]interface{}{
				"rules": []interface{}{
					map[string]interface{}{"protocol": "tcp", "from": "22", "to": "22", "cidr": "0.0.0.0/0"},
					map[string]interface{}{"protocol": "tcp", "from": 80.0, "to": 80.0, "cidr": "0.0.0.0/0"},
					map[string]interface{}{"protocol": "tcp", "from": "22", "to": "22", "cidr": "0.0.0.0/0"},
				},
			},
		},
	}
	h, err := DefaultRegistry.Resolve("BaseVMAppPlugin")
	require.NoError(t, err)

	result, err := h.LaunchApp(ctx, rec, launchRequest(p, lc))
	require.NoError(t, err)

	cl := result["cloudLaunch"].(map[string]interface{})
	publicIP := cl["publicIP"].(string)
	assert.True(t, strings.HasPrefix(publicIP, "203.0.113."))
	assert.Equal(t, publicIP, cl["applicationURL"])

	kp := cl["keyPair"].(map[string]interface{})
	assert.Equal(t, DefaultKeyPairName, kp["name"])
	assert.NotEmpty(t, kp["material"])

	sg := cl["securityGroup"].(map[string]interface{})
	assert.Equal(t, DefaultSecurityGroupName, sg["name"])

	groups, err := p.Security().SecurityGroups().Find(ctx, DefaultSecurityGroupName)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, DefaultSecurityGroupDescription, groups[0].Description)
	assert.Equal(t, "net-default", groups[0].NetworkID)
	rules, err := p.Security().SecurityGroups().ListRules(ctx, groups[0].ID)
	require.NoError(t, err)
	assert.Len(t, rules, 2, "the duplicate rule is skipped")

	instances, err := p.Compute().Instances().List(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "m1.large", instances[0].InstanceType)
	assert.Equal(t, "zone-1a", instances[0].ZoneID)

	assert.Equal(t, "Retrieving or creating a keypair", rec.actions[0])
	assert.Contains(t, rec.actions[len(rec.actions)-1], "Launch successful")
}

func TestLaunchReusesKeyPairAndAssignsStaticIP(t *testing.T) {
	ctx := context.Background()
	p := memory.New()
	_, err := p.Security().KeyPairs().Create(ctx, "mykey")
	require.NoError(t, err)

	h := &BaseAppHandler{}
	result, err := h.LaunchApp(ctx, &recorder{}, launchRequest(p, map[string]interface{}{
		"keyPair":  "mykey",
		"staticIP": "198.51.100.20",
	}))
	require.NoError(t, err)

	cl := result["cloudLaunch"].(map[string]interface{})
	assert.Equal(t, "198.51.100.20", cl["publicIP"])
	assert.Empty(t, cl["keyPair"].(map[string]interface{})["material"], "material is only returned on create")
	assert.NotContains(t, cl, "applicationURL")
	assert.NotContains(t, cl, "securityGroup")

	instances, err := p.Compute().Instances().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m1.small", instances[0].InstanceType, "falls back to the cloud config default")
}

func TestLaunchUsesRequestedSubnet(t *testing.T) {
	ctx := context.Background()
	p := memory.New()

	_, err := (&BaseAppHandler{}).LaunchApp(ctx, &recorder{}, launchRequest(p, map[string]interface{}{
		"subnet":   "subnet-default",
		"firewall": []interface{}{map[string]interface{}{"securityGroup": "MyApp"}},
	}))
	require.NoError(t, err)

	groups, err := p.Security().SecurityGroups().Find(ctx, "MyApp")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "net-default", groups[0].NetworkID)

	_, err = (&BaseAppHandler{}).LaunchApp(ctx, &recorder{}, launchRequest(p, map[string]interface{}{"subnet": "subnet-missing"}))
	assert.ErrorIs(t, err, cloud.ErrNotFound)
}

func TestLaunchFailures(t *testing.T) {
	ctx := context.Background()

	p := memory.New()
	req := launchRequest(p, nil)
	req.CloudConfig.ImageID = "img-missing"
	_, err := (&BaseAppHandler{}).LaunchApp(ctx, &recorder{}, req)
	assert.ErrorIs(t, err, cloud.ErrNotFound)

	p = memory.New()
	boom := errors.New("capacity exceeded")
	p.FailOn("instances.create", boom)
	_, err = (&BaseVMAppHandler{}).LaunchApp(ctx, &recorder{}, launchRequest(p, nil))
	assert.ErrorIs(t, err, boom)

	p = memory.New()
	p.FailOn("instances.wait", boom)
	_, err = (&BaseAppHandler{}).LaunchApp(ctx, &recorder{}, launchRequest(p, nil))
	assert.ErrorIs(t, err, boom)
}

func TestProcessAppConfig(t *testing.T) {
	appConfig := map[string]interface{}{
		"config_appliance": map[string]interface{}{"inventory": "galaxy"},
	}
	ud, err := (&BaseAppHandler{}).ProcessAppConfig("x", CloudConfig{}, cloud.Credentials{}, appConfig)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"inventory": "galaxy"}, ud)

	ud, err = (&BaseVMAppHandler{}).ProcessAppConfig("x", CloudConfig{}, cloud.Credentials{}, appConfig)
	require.NoError(t, err)
	assert.Empty(t, ud)
}
