package openstack

import (
	"context"

	"github.com/go-goose/goose/v5/neutron"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

type networkService struct{ p *Provider }

func toNetwork(n neutron.NetworkV2) cloud.Network {
	return cloud.Network{ID: n.Id, Name: n.Name, State: "available", External: n.External}
}

func (s networkService) List(ctx context.Context) ([]cloud.Network, error) {
	networks, err := s.p.neutron.ListNetworksV2()
	if err != nil {
		return nil, mapError(err, "networks", "")
	}
	out := make([]cloud.Network, 0, len(networks))
	for _, n := range networks {
		out = append(out, toNetwork(n))
	}
	return out, nil
}

func (s networkService) Get(ctx context.Context, id string) (*cloud.Network, error) {
	n, err := s.p.neutron.GetNetworkV2(id)
	if err != nil {
		return nil, mapError(err, "network", id)
	}
	out := toNetwork(*n)
	return &out, nil
}

func (s networkService) Create(ctx context.Context, opts cloud.NetworkCreate) (*cloud.Network, error) {
	return nil, notSupported("network creation")
}

func (s networkService) Delete(ctx context.Context, id string) error {
	return notSupported("network deletion")
}

func (s networkService) Subnets() cloud.SubnetService { return subnetService(s) }

type subnetService struct{ p *Provider }

func toSubnet(sn neutron.SubnetV2) cloud.Subnet {
	return cloud.Subnet{ID: sn.Id, Name: sn.Name, NetworkID: sn.NetworkId, CIDR: sn.Cidr}
}

func (s subnetService) List(ctx context.Context, networkID string) ([]cloud.Subnet, error) {
	subnets, err := s.p.neutron.ListSubnetsV2()
	if err != nil {
		return nil, mapError(err, "subnets", networkID)
	}
	out := make([]cloud.Subnet, 0, len(subnets))
	for _, sn := range subnets {
		if networkID != "" && sn.NetworkId != networkID {
			continue
		}
		out = append(out, toSubnet(sn))
	}
	return out, nil
}

func (s subnetService) Get(ctx context.Context, id string) (*cloud.Subnet, error) {
	sn, err := s.p.neutron.GetSubnetV2(id)
	if err != nil {
		return nil, mapError(err, "subnet", id)
	}
	out := toSubnet(*sn)
	return &out, nil
}

func (s subnetService) Create(ctx context.Context, opts cloud.SubnetCreate) (*cloud.Subnet, error) {
	return nil, notSupported("subnet creation")
}

func (s subnetService) Rename(ctx context.Context, id, name string) (*cloud.Subnet, error) {
	return nil, notSupported("subnet rename")
}

func (s subnetService) Delete(ctx context.Context, id string) error {
	return notSupported("subnet deletion")
}
