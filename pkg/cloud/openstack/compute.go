package openstack

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-goose/goose/v5/glance"
	"github.com/go-goose/goose/v5/nova"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

var (
	pollInterval         = 5 * time.Second
	instanceReadyTimeout = 10 * time.Minute
)

type computeService struct{ p *Provider }

func (c computeService) Regions() cloud.RegionService             { return regionService(c) }
func (c computeService) Images() cloud.ImageService               { return imageService(c) }
func (c computeService) InstanceTypes() cloud.InstanceTypeService { return flavorService(c) }
func (c computeService) Instances() cloud.InstanceService         { return serverService(c) }

// regionService exposes the single region the credentials are scoped to.
type regionService struct{ p *Provider }

func (s regionService) List(ctx context.Context) ([]cloud.Region, error) {
	return []cloud.Region{{ID: s.p.region, Name: s.p.region}}, nil
}

func (s regionService) Get(ctx context.Context, id string) (*cloud.Region, error) {
	if id != s.p.region {
		return nil, fmt.Errorf("region %q: %w", id, cloud.ErrNotFound)
	}
	return &cloud.Region{ID: id, Name: id}, nil
}

func (s regionService) Zones(ctx context.Context, regionID string) ([]cloud.Zone, error) {
	if _, err := s.Get(ctx, regionID); err != nil {
		return nil, err
	}
	zones, err := s.p.nova.ListAvailabilityZones()
	if err != nil {
		return nil, mapError(err, "availability zones", regionID)
	}
	out := make([]cloud.Zone, 0, len(zones))
	for _, z := range zones {
		if !z.State.Available {
			continue
		}
		out = append(out, cloud.Zone{ID: z.Name, Name: z.Name, RegionName: regionID})
	}
	return out, nil
}

type imageService struct{ p *Provider }

func toImage(img glance.ImageDetail) cloud.MachineImage {
	return cloud.MachineImage{ID: img.Id, Name: img.Name, State: img.Status}
}

func (s imageService) List(ctx context.Context) ([]cloud.MachineImage, error) {
	images, err := s.p.glance.ListImagesDetail()
	if err != nil {
		return nil, mapError(err, "images", "")
	}
	out := make([]cloud.MachineImage, 0, len(images))
	for _, img := range images {
		out = append(out, toImage(img))
	}
	return out, nil
}

func (s imageService) Get(ctx context.Context, id string) (*cloud.MachineImage, error) {
	img, err := s.p.glance.GetImageDetail(id)
	if err != nil {
		return nil, mapError(err, "image", id)
	}
	out := toImage(*img)
	return &out, nil
}

func (s imageService) Create(ctx context.Context, opts cloud.ImageCreate) (*cloud.MachineImage, error) {
	return nil, notSupported("image snapshots")
}

func (s imageService) Delete(ctx context.Context, id string) error {
	return notSupported("image deletion")
}

type flavorService struct{ p *Provider }

func toInstanceType(f nova.FlavorDetail) cloud.InstanceType {
	return cloud.InstanceType{ID: f.Id, Name: f.Name, VCPUs: f.VCPUs, RAM: f.RAM, Disk: f.Disk}
}

func (s flavorService) List(ctx context.Context) ([]cloud.InstanceType, error) {
	flavors, err := s.p.nova.ListFlavorsDetail()
	if err != nil {
		return nil, mapError(err, "flavors", "")
	}
	out := make([]cloud.InstanceType, 0, len(flavors))
	for _, f := range flavors {
		out = append(out, toInstanceType(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s flavorService) FindByName(ctx context.Context, name string) ([]cloud.InstanceType, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []cloud.InstanceType
	for _, it := range all {
		if it.Name == name {
			out = append(out, it)
		}
	}
	return out, nil
}

type serverService struct{ p *Provider }

func serverState(status string) string {
	switch status {
	case nova.StatusActive:
		return cloud.InstanceStateRunning
	case nova.StatusBuild, nova.StatusBuildSpawning:
		return cloud.InstanceStatePending
	case nova.StatusShutoff, nova.StatusSuspended:
		return cloud.InstanceStateStopped
	case nova.StatusDeleted:
		return cloud.InstanceStateDeleted
	case nova.StatusError:
		return cloud.InstanceStateError
	}
	return cloud.InstanceStateUnknown
}

func toInstance(s nova.ServerDetail) cloud.Instance {
	inst := cloud.Instance{
		ID:           s.Id,
		Name:         s.Name,
		State:        serverState(s.Status),
		InstanceType: s.Flavor.Id,
		ImageID:      s.Image.Id,
	}
	for netName, addrs := range s.Addresses {
		for _, addr := range addrs {
			if addr.Type == "floating" || netName == "public" {
				inst.PublicIPs = append(inst.PublicIPs, addr.Address)
			} else {
				inst.PrivateIPs = append(inst.PrivateIPs, addr.Address)
			}
		}
	}
	if s.Groups != nil {
		for _, g := range *s.Groups {
			inst.SecurityGroupIDs = append(inst.SecurityGroupIDs, g.Name)
		}
	}
	return inst
}

func (s serverService) List(ctx context.Context) ([]cloud.Instance, error) {
	servers, err := s.p.nova.ListServersDetail(nil)
	if err != nil {
		return nil, mapError(err, "servers", "")
	}
	out := make([]cloud.Instance, 0, len(servers))
	for _, srv := range servers {
		out = append(out, toInstance(srv))
	}
	return out, nil
}

func (s serverService) Get(ctx context.Context, id string) (*cloud.Instance, error) {
	srv, err := s.p.nova.GetServer(id)
	if err != nil {
		return nil, mapError(err, "instance", id)
	}
	inst := toInstance(*srv)
	return &inst, nil
}

func (s serverService) Create(ctx context.Context, opts cloud.InstanceCreate) (*cloud.Instance, error) {
	flavors, err := flavorService(s).FindByName(ctx, opts.InstanceType)
	if err != nil {
		return nil, err
	}
	if len(flavors) == 0 {
		return nil, fmt.Errorf("instance type %q: %w", opts.InstanceType, cloud.ErrNotFound)
	}

	run := nova.RunServerOpts{
		Name:             opts.Name,
		FlavorId:         flavors[0].ID,
		ImageId:          opts.ImageID,
		AvailabilityZone: opts.Zone,
	}
	if opts.UserData != "" {
		run.UserData = []byte(opts.UserData)
	}
	for _, g := range opts.SecurityGroups {
		run.SecurityGroupNames = append(run.SecurityGroupNames, nova.SecurityGroupName{Name: g.Name})
	}
	if opts.NetworkID != "" {
		run.Networks = []nova.ServerNetworks{{NetworkId: opts.NetworkID}}
	}

	entity, err := s.p.nova.RunServer(run)
	if err != nil {
		return nil, mapError(err, "image", opts.ImageID)
	}
	return &cloud.Instance{
		ID:           entity.Id,
		Name:         opts.Name,
		State:        cloud.InstanceStatePending,
		InstanceType: opts.InstanceType,
		ImageID:      opts.ImageID,
		ZoneID:       opts.Zone,
	}, nil
}

func (s serverService) Delete(ctx context.Context, id string) error {
	return mapError(s.p.nova.DeleteServer(id), "instance", id)
}

// WaitTillReady polls nova until the server leaves BUILD.
func (s serverService) WaitTillReady(ctx context.Context, id string) (*cloud.Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, instanceReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		inst, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		switch inst.State {
		case cloud.InstanceStateRunning:
			return inst, nil
		case cloud.InstanceStateError, cloud.InstanceStateDeleted:
			return nil, fmt.Errorf("instance %q entered state %s", id, inst.State)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("instance %q did not become ready: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s serverService) AddFloatingIP(ctx context.Context, id, ip string) error {
	return mapError(s.p.nova.AddServerFloatingIP(id, ip), "instance", id)
}
