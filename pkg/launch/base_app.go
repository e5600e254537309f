package launch

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
)

const (
	DefaultKeyPairName              = "cloudlaunch_key_pair"
	DefaultSecurityGroupName        = "CloudLaunchDefault"
	DefaultSecurityGroupDescription = "Created by CloudLaunch"
)

var log = logging.New("launch")

// BaseAppHandler launches a single instance configured from the
// "config_cloudlaunch" section of the launch config:
//
//	{
//	  "keyPair": "mykey",
//	  "instanceType": "m1.medium",
//	  "placementZone": "us-east-1a",
//	  "network": "net-id", "subnet": "subnet-id",
//	  "staticIP": "203.0.113.10",
//	  "firewall": [{
//	    "securityGroup": "MyApp", "description": "My App SG",
//	    "rules": [{"protocol": "tcp", "from": "1", "to": "65535", "cidr": "0.0.0.0/0", "src_group": ""}]
//	  }]
//	}
type BaseAppHandler struct{}

var _ Handler = (*BaseAppHandler)(nil)

// ProcessAppConfig passes the "config_appliance" section through as user
// data.
func (h *BaseAppHandler) ProcessAppConfig(name string, cfg CloudConfig, creds cloud.Credentials, appConfig map[string]interface{}) (map[string]interface{}, error) {
	return MergeConfigs(section(appConfig, "config_appliance")), nil
}

type networks struct {
	networkID string
	subnetID  string
}

func (h *BaseAppHandler) LaunchApp(ctx context.Context, r Reporter, req Request) (Result, error) {
	p := req.Provider
	lc := section(req.AppConfig, "config_cloudlaunch")
	logger := log.WithField("deployment", req.Name).WithField("cloud", req.CloudConfig.CloudSlug)

	img, err := p.Compute().Images().Get(ctx, req.CloudConfig.ImageID)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}

	r.Progress(ctx, "Retrieving or creating a keypair")
	kpName := stringValue(lc, "keyPair")
	if kpName == "" {
		kpName = DefaultKeyPairName
	}
	kp, err := getOrCreateKeyPair(ctx, p, kpName)
	if err != nil {
		return nil, err
	}

	nets, err := resolveNetworks(ctx, p, lc)
	if err != nil {
		return nil, err
	}

	r.Progress(ctx, "Applying firewall settings")
	groups, err := applyFirewall(ctx, p, lc, nets, logger)
	if err != nil {
		return nil, err
	}

	instType := stringValue(lc, "instanceType")
	if instType == "" {
		instType = req.CloudConfig.DefaultInstanceType
	}
	zone := stringValue(lc, "placementZone")

	ud, err := yaml.Marshal(req.UserData)
	if err != nil {
		return nil, fmt.Errorf("encode user data: %w", err)
	}
	logger.Debugf("launching with user data:\n%s", ud)

	r.Progress(ctx, fmt.Sprintf("Launching an instance of type %s with keypair %s in zone %s", instType, kp.Name, zone))
	inst, err := p.Compute().Instances().Create(ctx, cloud.InstanceCreate{
		Name:           req.Name,
		ImageID:        img.ID,
		InstanceType:   instType,
		KeyPairName:    kp.Name,
		SecurityGroups: groups,
		Zone:           zone,
		NetworkID:      nets.networkID,
		SubnetID:       nets.subnetID,
		UserData:       string(ud),
	})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	r.Progress(ctx, fmt.Sprintf("Waiting for instance %s to be ready..", inst.ID))
	inst, err = p.Compute().Instances().WaitTillReady(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	if staticIP := stringValue(lc, "staticIP"); staticIP != "" {
		r.Progress(ctx, fmt.Sprintf("Assigning requested static IP %s..", staticIP))
		if err := p.Compute().Instances().AddFloatingIP(ctx, inst.ID, staticIP); err != nil {
			return nil, fmt.Errorf("assign static ip: %w", err)
		}
		if inst, err = p.Compute().Instances().Get(ctx, inst.ID); err != nil {
			return nil, err
		}
	}

	publicIP := firstOf(inst.PublicIPs, inst.PrivateIPs)
	results := map[string]interface{}{
		"keyPair":  map[string]interface{}{"id": kp.ID, "name": kp.Name, "material": kp.Material},
		"publicIP": publicIP,
	}
	if len(groups) > 0 {
		results["securityGroup"] = map[string]interface{}{"id": groups[0].ID, "name": groups[0].Name}
	}
	r.Progress(ctx, fmt.Sprintf("Launch successful. Public IP %s", publicIP))
	return Result{"cloudLaunch": results}, nil
}

// getOrCreateKeyPair reuses an existing pair by name. Clouds without key
// pair support launch with no key.
func getOrCreateKeyPair(ctx context.Context, p cloud.Provider, name string) (*cloud.KeyPair, error) {
	kps, err := p.Security().KeyPairs().Find(ctx, name)
	if errors.Is(err, cloud.ErrNotSupported) {
		return &cloud.KeyPair{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find key pair: %w", err)
	}
	if len(kps) > 0 {
		return &kps[0], nil
	}
	kp, err := p.Security().KeyPairs().Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create key pair: %w", err)
	}
	return kp, nil
}

// resolveNetworks picks the network and subnet for the instance. OpenStack
// takes the requested network as is. Elsewhere a requested subnet
// determines the network, and with no subnet the cloud's default network
// is used.
func resolveNetworks(ctx context.Context, p cloud.Provider, lc map[string]interface{}) (networks, error) {
	var nets networks
	if p.CloudType() == "openstack" {
		nets.networkID = stringValue(lc, "network")
		return nets, nil
	}

	if subnetID := stringValue(lc, "subnet"); subnetID != "" {
		sn, err := p.Network().Subnets().Get(ctx, subnetID)
		if err != nil {
			return nets, fmt.Errorf("get subnet: %w", err)
		}
		nets.subnetID = sn.ID
		nets.networkID = sn.NetworkID
		return nets, nil
	}

	all, err := p.Network().List(ctx)
	if err != nil {
		return nets, fmt.Errorf("list networks: %w", err)
	}
	for _, n := range all {
		if n.Default {
			nets.networkID = n.ID
		}
	}
	return nets, nil
}

func applyFirewall(ctx context.Context, p cloud.Provider, lc map[string]interface{}, nets networks, logger *logrus.Entry) ([]cloud.SecurityGroup, error) {
	groupsCfg, _ := lc["firewall"].([]interface{})
	var groups []cloud.SecurityGroup
	for _, raw := range groupsCfg {
		g, _ := raw.(map[string]interface{})
		name := stringValue(g, "securityGroup")
		if name == "" {
			name = DefaultSecurityGroupName
		}
		desc := stringValue(g, "description")
		if desc == "" {
			desc = DefaultSecurityGroupDescription
		}

		sg, err := getOrCreateSecurityGroup(ctx, p, name, desc, nets.networkID)
		if err != nil {
			return nil, err
		}

		rules, _ := g["rules"].([]interface{})
		for _, rawRule := range rules {
			rule, _ := rawRule.(map[string]interface{})
			_, err := p.Security().SecurityGroups().AddRule(ctx, sg.ID, cloud.RuleCreate{
				Protocol:   stringValue(rule, "protocol"),
				FromPort:   intValue(rule, "from"),
				ToPort:     intValue(rule, "to"),
				CIDR:       stringValue(rule, "cidr"),
				SrcGroupID: srcGroupID(ctx, p, stringValue(rule, "src_group")),
			})
			if err != nil {
				logger.Warnf("skipping rule on security group %s: %v", sg.Name, err)
			}
		}
		groups = append(groups, *sg)
	}
	return groups, nil
}

func getOrCreateSecurityGroup(ctx context.Context, p cloud.Provider, name, desc, networkID string) (*cloud.SecurityGroup, error) {
	sgs, err := p.Security().SecurityGroups().Find(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find security group: %w", err)
	}
	if len(sgs) > 0 {
		return &sgs[0], nil
	}
	sg, err := p.Security().SecurityGroups().Create(ctx, cloud.SecurityGroupCreate{
		Name:        name,
		Description: desc,
		NetworkID:   networkID,
	})
	if err != nil {
		return nil, fmt.Errorf("create security group: %w", err)
	}
	return sg, nil
}

// srcGroupID resolves a rule's source group name to its id. Unknown names
// resolve to the empty string.
func srcGroupID(ctx context.Context, p cloud.Provider, name string) string {
	if name == "" {
		return ""
	}
	sgs, err := p.Security().SecurityGroups().Find(ctx, name)
	if err != nil || len(sgs) == 0 {
		return ""
	}
	return sgs[0].ID
}

// intValue accepts JSON numbers and numeric strings.
func intValue(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func firstOf(lists ...[]string) string {
	for _, l := range lists {
		if len(l) > 0 {
			return l[0]
		}
	}
	return ""
}
