package deploy

import (
	"fmt"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/launch"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
)

// LaunchConfig merges the launch configuration layers of a deployment:
// application default, version default, cloud config default and finally
// the configuration sent with the request. Later layers win.
func LaunchConfig(app *model.Application, version *model.ApplicationVersion, cc *model.ApplicationVersionCloudConfig, requested string) (map[string]interface{}, error) {
	layers := make([]map[string]interface{}, 0, 4)
	add := func(what, value string) error {
		m, err := model.ParseLaunchConfig(value)
		if err != nil {
			return fmt.Errorf("%s launch config: %w", what, err)
		}
		layers = append(layers, m)
		return nil
	}
	if app != nil {
		if err := add("application", app.DefaultLaunchConfig); err != nil {
			return nil, err
		}
	}
	if version != nil {
		if err := add("version", version.DefaultLaunchConfig); err != nil {
			return nil, err
		}
	}
	if cc != nil {
		if err := add("cloud", cc.DefaultLaunchConfig); err != nil {
			return nil, err
		}
	}
	if err := add("requested", requested); err != nil {
		return nil, err
	}
	return launch.MergeConfigs(layers...), nil
}

// CloudLaunchSettings extracts the provider settings the deployment record
// keeps for bookkeeping from a merged launch config.
func CloudLaunchSettings(cfg map[string]interface{}) (instanceType, zone, keyPair, network, subnet string) {
	lc, _ := cfg["config_cloudlaunch"].(map[string]interface{})
	get := func(k string) string {
		s, _ := lc[k].(string)
		return s
	}
	return get("instanceType"), get("placementZone"), get("keyPair"), get("network"), get("subnet")
}
