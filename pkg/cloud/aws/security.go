package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

type securityService struct{ p *Provider }

func (s securityService) KeyPairs() cloud.KeyPairService             { return keyPairService(s) }
func (s securityService) SecurityGroups() cloud.SecurityGroupService { return securityGroupService(s) }

type keyPairService struct{ p *Provider }

func toKeyPair(kp ec2types.KeyPairInfo) cloud.KeyPair {
	return cloud.KeyPair{ID: aws.ToString(kp.KeyName), Name: aws.ToString(kp.KeyName)}
}

func (s keyPairService) describe(ctx context.Context, in *ec2.DescribeKeyPairsInput, id string) ([]cloud.KeyPair, error) {
	out, err := s.p.ec2.DescribeKeyPairs(ctx, in)
	if err != nil {
		return nil, mapError(err, "key pair", id)
	}
	pairs := make([]cloud.KeyPair, 0, len(out.KeyPairs))
	for _, kp := range out.KeyPairs {
		pairs = append(pairs, toKeyPair(kp))
	}
	return pairs, nil
}

func (s keyPairService) List(ctx context.Context) ([]cloud.KeyPair, error) {
	return s.describe(ctx, &ec2.DescribeKeyPairsInput{}, "")
}

// Get looks a key pair up by name, which EC2 uses as its identity.
func (s keyPairService) Get(ctx context.Context, id string) (*cloud.KeyPair, error) {
	pairs, err := s.describe(ctx, &ec2.DescribeKeyPairsInput{KeyNames: []string{id}}, id)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("key pair %q: %w", id, cloud.ErrNotFound)
	}
	return &pairs[0], nil
}

func (s keyPairService) Find(ctx context.Context, name string) ([]cloud.KeyPair, error) {
	return s.describe(ctx, &ec2.DescribeKeyPairsInput{Filters: []ec2types.Filter{filter("key-name", name)}}, name)
}

func (s keyPairService) Create(ctx context.Context, name string) (*cloud.KeyPair, error) {
	out, err := s.p.ec2.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{KeyName: aws.String(name)})
	if err != nil {
		return nil, mapError(err, "key pair", name)
	}
	return &cloud.KeyPair{
		ID:       aws.ToString(out.KeyName),
		Name:     aws.ToString(out.KeyName),
		Material: aws.ToString(out.KeyMaterial),
	}, nil
}

func (s keyPairService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{KeyName: aws.String(id)})
	return mapError(err, "key pair", id)
}

type securityGroupService struct{ p *Provider }

func toSecurityGroup(g ec2types.SecurityGroup) cloud.SecurityGroup {
	return cloud.SecurityGroup{
		ID:          aws.ToString(g.GroupId),
		Name:        aws.ToString(g.GroupName),
		Description: aws.ToString(g.Description),
		NetworkID:   aws.ToString(g.VpcId),
	}
}

func (s securityGroupService) describe(ctx context.Context, in *ec2.DescribeSecurityGroupsInput, id string) ([]cloud.SecurityGroup, error) {
	out, err := s.p.ec2.DescribeSecurityGroups(ctx, in)
	if err != nil {
		return nil, mapError(err, "security group", id)
	}
	groups := make([]cloud.SecurityGroup, 0, len(out.SecurityGroups))
	for _, g := range out.SecurityGroups {
		groups = append(groups, toSecurityGroup(g))
	}
	return groups, nil
}

func (s securityGroupService) List(ctx context.Context) ([]cloud.SecurityGroup, error) {
	return s.describe(ctx, &ec2.DescribeSecurityGroupsInput{}, "")
}

func (s securityGroupService) Get(ctx context.Context, id string) (*cloud.SecurityGroup, error) {
	groups, err := s.describe(ctx, &ec2.DescribeSecurityGroupsInput{GroupIds: []string{id}}, id)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("security group %q: %w", id, cloud.ErrNotFound)
	}
	rules, err := s.ListRules(ctx, id)
	if err != nil {
		return nil, err
	}
	groups[0].Rules = rules
	return &groups[0], nil
}

func (s securityGroupService) Find(ctx context.Context, name string) ([]cloud.SecurityGroup, error) {
	return s.describe(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{filter("group-name", name)},
	}, name)
}

func (s securityGroupService) Create(ctx context.Context, opts cloud.SecurityGroupCreate) (*cloud.SecurityGroup, error) {
	in := &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(opts.Name),
		Description: aws.String(opts.Description),
	}
	if opts.NetworkID != "" {
		in.VpcId = aws.String(opts.NetworkID)
	}
	out, err := s.p.ec2.CreateSecurityGroup(ctx, in)
	if err != nil {
		return nil, mapError(err, "network", opts.NetworkID)
	}
	return &cloud.SecurityGroup{
		ID:          aws.ToString(out.GroupId),
		Name:        opts.Name,
		Description: opts.Description,
		NetworkID:   opts.NetworkID,
	}, nil
}

func (s securityGroupService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: aws.String(id)})
	return mapError(err, "security group", id)
}

func toRule(r ec2types.SecurityGroupRule) cloud.Rule {
	rule := cloud.Rule{
		ID:       aws.ToString(r.SecurityGroupRuleId),
		Protocol: aws.ToString(r.IpProtocol),
		FromPort: int(aws.ToInt32(r.FromPort)),
		ToPort:   int(aws.ToInt32(r.ToPort)),
		CIDR:     aws.ToString(r.CidrIpv4),
	}
	if r.ReferencedGroupInfo != nil {
		rule.SrcGroupID = aws.ToString(r.ReferencedGroupInfo.GroupId)
	}
	return rule
}

// ListRules returns the ingress rules of a group.
func (s securityGroupService) ListRules(ctx context.Context, groupID string) ([]cloud.Rule, error) {
	out, err := s.p.ec2.DescribeSecurityGroupRules(ctx, &ec2.DescribeSecurityGroupRulesInput{
		Filters: []ec2types.Filter{filter("group-id", groupID)},
	})
	if err != nil {
		return nil, mapError(err, "security group", groupID)
	}
	rules := make([]cloud.Rule, 0, len(out.SecurityGroupRules))
	for _, r := range out.SecurityGroupRules {
		if aws.ToBool(r.IsEgress) {
			continue
		}
		rules = append(rules, toRule(r))
	}
	return rules, nil
}

func (s securityGroupService) GetRule(ctx context.Context, groupID, ruleID string) (*cloud.Rule, error) {
	out, err := s.p.ec2.DescribeSecurityGroupRules(ctx, &ec2.DescribeSecurityGroupRulesInput{
		SecurityGroupRuleIds: []string{ruleID},
	})
	if err != nil {
		return nil, mapError(err, "rule", ruleID)
	}
	for _, r := range out.SecurityGroupRules {
		if aws.ToString(r.GroupId) == groupID {
			rule := toRule(r)
			return &rule, nil
		}
	}
	return nil, fmt.Errorf("rule %q: %w", ruleID, cloud.ErrNotFound)
}

func (s securityGroupService) AddRule(ctx context.Context, groupID string, opts cloud.RuleCreate) (*cloud.Rule, error) {
	perm := ec2types.IpPermission{
		IpProtocol: aws.String(opts.Protocol),
		FromPort:   aws.Int32(int32(opts.FromPort)),
		ToPort:     aws.Int32(int32(opts.ToPort)),
	}
	if opts.SrcGroupID != "" {
		perm.UserIdGroupPairs = []ec2types.UserIdGroupPair{{GroupId: aws.String(opts.SrcGroupID)}}
	} else {
		cidr := opts.CIDR
		if cidr == "" {
			cidr = "0.0.0.0/0"
		}
		perm.IpRanges = []ec2types.IpRange{{CidrIp: aws.String(cidr)}}
	}

	out, err := s.p.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: []ec2types.IpPermission{perm},
	})
	if err != nil {
		return nil, mapError(err, "security group", groupID)
	}
	if len(out.SecurityGroupRules) == 0 {
		return nil, fmt.Errorf("authorize ingress on %q returned no rule", groupID)
	}
	rule := toRule(out.SecurityGroupRules[0])
	return &rule, nil
}

func (s securityGroupService) DeleteRule(ctx context.Context, groupID, ruleID string) error {
	_, err := s.p.ec2.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
		GroupId:              aws.String(groupID),
		SecurityGroupRuleIds: []string{ruleID},
	})
	return mapError(err, "rule", ruleID)
}
