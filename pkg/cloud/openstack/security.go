package openstack

import (
	"context"
	"fmt"

	gooseerrors "github.com/go-goose/goose/v5/errors"
	"github.com/go-goose/goose/v5/neutron"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

type securityService struct{ p *Provider }

func (s securityService) KeyPairs() cloud.KeyPairService             { return unsupportedKeyPairs{} }
func (s securityService) SecurityGroups() cloud.SecurityGroupService { return securityGroupService(s) }

type securityGroupService struct{ p *Provider }

func toRule(r neutron.SecurityGroupRuleV2) cloud.Rule {
	rule := cloud.Rule{ID: r.Id, CIDR: r.RemoteIPPrefix}
	if r.IPProtocol != nil {
		rule.Protocol = *r.IPProtocol
	}
	if r.PortRangeMin != nil {
		rule.FromPort = *r.PortRangeMin
	}
	if r.PortRangeMax != nil {
		rule.ToPort = *r.PortRangeMax
	}
	return rule
}

func toSecurityGroup(g neutron.SecurityGroupV2) cloud.SecurityGroup {
	sg := cloud.SecurityGroup{ID: g.Id, Name: g.Name, Description: g.Description}
	for _, r := range g.Rules {
		if r.Direction != "ingress" {
			continue
		}
		sg.Rules = append(sg.Rules, toRule(r))
	}
	return sg
}

func (s securityGroupService) List(ctx context.Context) ([]cloud.SecurityGroup, error) {
	groups, err := s.p.neutron.ListSecurityGroupsV2()
	if err != nil {
		return nil, mapError(err, "security groups", "")
	}
	out := make([]cloud.SecurityGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, toSecurityGroup(g))
	}
	return out, nil
}

func (s securityGroupService) Get(ctx context.Context, id string) (*cloud.SecurityGroup, error) {
	groups, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("security group %q: %w", id, cloud.ErrNotFound)
}

func (s securityGroupService) Find(ctx context.Context, name string) ([]cloud.SecurityGroup, error) {
	groups, err := s.p.neutron.SecurityGroupByNameV2(name)
	if err != nil {
		// An unknown name is not an error for a search.
		if gooseerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, mapError(err, "security group", name)
	}
	out := make([]cloud.SecurityGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, toSecurityGroup(g))
	}
	return out, nil
}

func (s securityGroupService) Create(ctx context.Context, opts cloud.SecurityGroupCreate) (*cloud.SecurityGroup, error) {
	g, err := s.p.neutron.CreateSecurityGroupV2(opts.Name, opts.Description)
	if err != nil {
		return nil, mapError(err, "security group", opts.Name)
	}
	sg := toSecurityGroup(*g)
	return &sg, nil
}

func (s securityGroupService) Delete(ctx context.Context, id string) error {
	return mapError(s.p.neutron.DeleteSecurityGroupV2(id), "security group", id)
}

func (s securityGroupService) ListRules(ctx context.Context, groupID string) ([]cloud.Rule, error) {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return g.Rules, nil
}

func (s securityGroupService) GetRule(ctx context.Context, groupID, ruleID string) (*cloud.Rule, error) {
	rules, err := s.ListRules(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		if r.ID == ruleID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("rule %q: %w", ruleID, cloud.ErrNotFound)
}

func (s securityGroupService) AddRule(ctx context.Context, groupID string, opts cloud.RuleCreate) (*cloud.Rule, error) {
	if opts.SrcGroupID != "" {
		return nil, notSupported("group-sourced rules")
	}
	cidr := opts.CIDR
	if cidr == "" {
		cidr = "0.0.0.0/0"
	}
	info := neutron.RuleInfoV2{
		Direction:      "ingress",
		ParentGroupId:  groupID,
		IPProtocol:     opts.Protocol,
		RemoteIPPrefix: cidr,
		EthernetType:   "IPv4",
	}
	if opts.Protocol != "icmp" {
		info.PortRangeMin = opts.FromPort
		info.PortRangeMax = opts.ToPort
	}
	r, err := s.p.neutron.CreateSecurityGroupRuleV2(info)
	if err != nil {
		return nil, mapError(err, "security group", groupID)
	}
	rule := toRule(*r)
	return &rule, nil
}

func (s securityGroupService) DeleteRule(ctx context.Context, groupID, ruleID string) error {
	return mapError(s.p.neutron.DeleteSecurityGroupRuleV2(ruleID), "rule", ruleID)
}
