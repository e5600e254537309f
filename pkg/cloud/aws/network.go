package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

// networkService maps networks onto VPCs.
type networkService struct{ p *Provider }

func toNetwork(v ec2types.Vpc) cloud.Network {
	return cloud.Network{
		ID:      aws.ToString(v.VpcId),
		Name:    nameTag(v.Tags),
		State:   string(v.State),
		CIDR:    aws.ToString(v.CidrBlock),
		Default: aws.ToBool(v.IsDefault),
	}
}

func (s networkService) List(ctx context.Context) ([]cloud.Network, error) {
	out, err := s.p.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{})
	if err != nil {
		return nil, mapError(err, "networks", "")
	}
	networks := make([]cloud.Network, 0, len(out.Vpcs))
	for _, v := range out.Vpcs {
		networks = append(networks, toNetwork(v))
	}
	return networks, nil
}

func (s networkService) Get(ctx context.Context, id string) (*cloud.Network, error) {
	out, err := s.p.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{id}})
	if err != nil {
		return nil, mapError(err, "network", id)
	}
	if len(out.Vpcs) == 0 {
		return nil, fmt.Errorf("network %q: %w", id, cloud.ErrNotFound)
	}
	n := toNetwork(out.Vpcs[0])
	return &n, nil
}

func (s networkService) Create(ctx context.Context, opts cloud.NetworkCreate) (*cloud.Network, error) {
	cidr := opts.CIDR
	if cidr == "" {
		cidr = "10.0.0.0/16"
	}
	out, err := s.p.ec2.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         aws.String(cidr),
		TagSpecifications: nameTagSpec(ec2types.ResourceTypeVpc, opts.Name),
	})
	if err != nil {
		return nil, mapError(err, "network", opts.Name)
	}
	n := toNetwork(*out.Vpc)
	if n.Name == "" {
		n.Name = opts.Name
	}
	return &n, nil
}

func (s networkService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(id)})
	return mapError(err, "network", id)
}

func (s networkService) Subnets() cloud.SubnetService { return subnetService(s) }

type subnetService struct{ p *Provider }

func toSubnet(sn ec2types.Subnet) cloud.Subnet {
	return cloud.Subnet{
		ID:        aws.ToString(sn.SubnetId),
		Name:      nameTag(sn.Tags),
		NetworkID: aws.ToString(sn.VpcId),
		CIDR:      aws.ToString(sn.CidrBlock),
		Zone:      aws.ToString(sn.AvailabilityZone),
	}
}

func (s subnetService) List(ctx context.Context, networkID string) ([]cloud.Subnet, error) {
	in := &ec2.DescribeSubnetsInput{}
	if networkID != "" {
		in.Filters = []ec2types.Filter{filter("vpc-id", networkID)}
	}
	out, err := s.p.ec2.DescribeSubnets(ctx, in)
	if err != nil {
		return nil, mapError(err, "network", networkID)
	}
	subnets := make([]cloud.Subnet, 0, len(out.Subnets))
	for _, sn := range out.Subnets {
		subnets = append(subnets, toSubnet(sn))
	}
	return subnets, nil
}

func (s subnetService) Get(ctx context.Context, id string) (*cloud.Subnet, error) {
	out, err := s.p.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{SubnetIds: []string{id}})
	if err != nil {
		return nil, mapError(err, "subnet", id)
	}
	if len(out.Subnets) == 0 {
		return nil, fmt.Errorf("subnet %q: %w", id, cloud.ErrNotFound)
	}
	sn := toSubnet(out.Subnets[0])
	return &sn, nil
}

func (s subnetService) Create(ctx context.Context, opts cloud.SubnetCreate) (*cloud.Subnet, error) {
	in := &ec2.CreateSubnetInput{
		VpcId:             aws.String(opts.NetworkID),
		CidrBlock:         aws.String(opts.CIDR),
		TagSpecifications: nameTagSpec(ec2types.ResourceTypeSubnet, opts.Name),
	}
	if opts.Zone != "" {
		in.AvailabilityZone = aws.String(opts.Zone)
	}
	out, err := s.p.ec2.CreateSubnet(ctx, in)
	if err != nil {
		return nil, mapError(err, "network", opts.NetworkID)
	}
	sn := toSubnet(*out.Subnet)
	if sn.Name == "" {
		sn.Name = opts.Name
	}
	return &sn, nil
}

// Rename rewrites the Name tag.
func (s subnetService) Rename(ctx context.Context, id, name string) (*cloud.Subnet, error) {
	_, err := s.p.ec2.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{id},
		Tags:      []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
	})
	if err != nil {
		return nil, mapError(err, "subnet", id)
	}
	sn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sn.Name = name
	return sn, nil
}

func (s subnetService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: aws.String(id)})
	return mapError(err, "subnet", id)
}
