package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

// instanceReadyTimeout bounds WaitTillReady.
const instanceReadyTimeout = 10 * time.Minute

type computeService struct{ p *Provider }

func (c computeService) Regions() cloud.RegionService             { return regionService(c) }
func (c computeService) Images() cloud.ImageService               { return imageService(c) }
func (c computeService) InstanceTypes() cloud.InstanceTypeService { return instanceTypeService(c) }
func (c computeService) Instances() cloud.InstanceService         { return instanceService(c) }

type regionService struct{ p *Provider }

func (s regionService) List(ctx context.Context) ([]cloud.Region, error) {
	out, err := s.p.ec2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, mapError(err, "regions", "")
	}
	regions := make([]cloud.Region, 0, len(out.Regions))
	for _, r := range out.Regions {
		name := aws.ToString(r.RegionName)
		regions = append(regions, cloud.Region{ID: name, Name: name})
	}
	return regions, nil
}

func (s regionService) Get(ctx context.Context, id string) (*cloud.Region, error) {
	out, err := s.p.ec2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{RegionNames: []string{id}})
	if err != nil {
		return nil, mapError(err, "region", id)
	}
	if len(out.Regions) == 0 {
		return nil, fmt.Errorf("region %q: %w", id, cloud.ErrNotFound)
	}
	name := aws.ToString(out.Regions[0].RegionName)
	return &cloud.Region{ID: name, Name: name}, nil
}

func (s regionService) Zones(ctx context.Context, regionID string) ([]cloud.Zone, error) {
	if _, err := s.Get(ctx, regionID); err != nil {
		return nil, err
	}
	out, err := s.p.ec2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{},
		func(o *ec2.Options) { o.Region = regionID })
	if err != nil {
		return nil, mapError(err, "zones", regionID)
	}
	zones := make([]cloud.Zone, 0, len(out.AvailabilityZones))
	for _, z := range out.AvailabilityZones {
		zones = append(zones, cloud.Zone{
			ID:         aws.ToString(z.ZoneName),
			Name:       aws.ToString(z.ZoneName),
			RegionName: aws.ToString(z.RegionName),
		})
	}
	return zones, nil
}

type imageService struct{ p *Provider }

func toImage(img ec2types.Image) cloud.MachineImage {
	return cloud.MachineImage{
		ID:          aws.ToString(img.ImageId),
		Name:        aws.ToString(img.Name),
		Description: aws.ToString(img.Description),
		State:       string(img.State),
	}
}

// List returns the images owned by the account; the public catalog is too
// large to enumerate.
func (s imageService) List(ctx context.Context) ([]cloud.MachineImage, error) {
	out, err := s.p.ec2.DescribeImages(ctx, &ec2.DescribeImagesInput{Owners: []string{"self"}})
	if err != nil {
		return nil, mapError(err, "images", "")
	}
	images := make([]cloud.MachineImage, 0, len(out.Images))
	for _, img := range out.Images {
		images = append(images, toImage(img))
	}
	return images, nil
}

func (s imageService) Get(ctx context.Context, id string) (*cloud.MachineImage, error) {
	out, err := s.p.ec2.DescribeImages(ctx, &ec2.DescribeImagesInput{ImageIds: []string{id}})
	if err != nil {
		return nil, mapError(err, "image", id)
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("image %q: %w", id, cloud.ErrNotFound)
	}
	img := toImage(out.Images[0])
	return &img, nil
}

func (s imageService) Create(ctx context.Context, opts cloud.ImageCreate) (*cloud.MachineImage, error) {
	out, err := s.p.ec2.CreateImage(ctx, &ec2.CreateImageInput{
		InstanceId: aws.String(opts.InstanceID),
		Name:       aws.String(opts.Name),
	})
	if err != nil {
		return nil, mapError(err, "instance", opts.InstanceID)
	}
	return &cloud.MachineImage{ID: aws.ToString(out.ImageId), Name: opts.Name, State: string(ec2types.ImageStatePending)}, nil
}

func (s imageService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.DeregisterImage(ctx, &ec2.DeregisterImageInput{ImageId: aws.String(id)})
	return mapError(err, "image", id)
}

type instanceTypeService struct{ p *Provider }

func toInstanceType(info ec2types.InstanceTypeInfo) cloud.InstanceType {
	it := cloud.InstanceType{ID: string(info.InstanceType), Name: string(info.InstanceType)}
	if info.VCpuInfo != nil {
		it.VCPUs = int(aws.ToInt32(info.VCpuInfo.DefaultVCpus))
	}
	if info.MemoryInfo != nil {
		it.RAM = int(aws.ToInt64(info.MemoryInfo.SizeInMiB))
	}
	if info.InstanceStorageInfo != nil {
		it.Disk = int(aws.ToInt64(info.InstanceStorageInfo.TotalSizeInGB))
	}
	for i, c := range it.Name {
		if c == '.' {
			it.Family = it.Name[:i]
			break
		}
	}
	return it
}

func (s instanceTypeService) List(ctx context.Context) ([]cloud.InstanceType, error) {
	var types []cloud.InstanceType
	pager := ec2.NewDescribeInstanceTypesPaginator(s.p.ec2, &ec2.DescribeInstanceTypesInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, "instance types", "")
		}
		for _, info := range page.InstanceTypes {
			types = append(types, toInstanceType(info))
		}
	}
	return types, nil
}

func (s instanceTypeService) FindByName(ctx context.Context, name string) ([]cloud.InstanceType, error) {
	out, err := s.p.ec2.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{
		InstanceTypes: []ec2types.InstanceType{ec2types.InstanceType(name)},
	})
	if err != nil {
		// Unknown names are rejected as invalid parameters rather than
		// returning an empty page.
		if errorCode(err) == "InvalidInstanceType" {
			return nil, nil
		}
		return nil, mapError(err, "instance type", name)
	}
	types := make([]cloud.InstanceType, 0, len(out.InstanceTypes))
	for _, info := range out.InstanceTypes {
		types = append(types, toInstanceType(info))
	}
	return types, nil
}

type instanceService struct{ p *Provider }

func toInstance(inst ec2types.Instance) cloud.Instance {
	out := cloud.Instance{
		ID:           aws.ToString(inst.InstanceId),
		Name:         nameTag(inst.Tags),
		State:        cloud.InstanceStateUnknown,
		InstanceType: string(inst.InstanceType),
		ImageID:      aws.ToString(inst.ImageId),
		KeyPairName:  aws.ToString(inst.KeyName),
	}
	if inst.State != nil {
		switch inst.State.Name {
		case ec2types.InstanceStateNamePending:
			out.State = cloud.InstanceStatePending
		case ec2types.InstanceStateNameRunning:
			out.State = cloud.InstanceStateRunning
		case ec2types.InstanceStateNameStopped, ec2types.InstanceStateNameStopping:
			out.State = cloud.InstanceStateStopped
		case ec2types.InstanceStateNameTerminated, ec2types.InstanceStateNameShuttingDown:
			out.State = cloud.InstanceStateDeleted
		}
	}
	if inst.Placement != nil {
		out.ZoneID = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if ip := aws.ToString(inst.PublicIpAddress); ip != "" {
		out.PublicIPs = []string{ip}
	}
	if ip := aws.ToString(inst.PrivateIpAddress); ip != "" {
		out.PrivateIPs = []string{ip}
	}
	for _, g := range inst.SecurityGroups {
		out.SecurityGroupIDs = append(out.SecurityGroupIDs, aws.ToString(g.GroupId))
	}
	return out
}

func (s instanceService) List(ctx context.Context) ([]cloud.Instance, error) {
	var instances []cloud.Instance
	pager := ec2.NewDescribeInstancesPaginator(s.p.ec2, &ec2.DescribeInstancesInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, "instances", "")
		}
		for _, r := range page.Reservations {
			for _, inst := range r.Instances {
				instances = append(instances, toInstance(inst))
			}
		}
	}
	return instances, nil
}

func (s instanceService) Get(ctx context.Context, id string) (*cloud.Instance, error) {
	out, err := s.p.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return nil, mapError(err, "instance", id)
	}
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			converted := toInstance(inst)
			return &converted, nil
		}
	}
	return nil, fmt.Errorf("instance %q: %w", id, cloud.ErrNotFound)
}

func (s instanceService) Create(ctx context.Context, opts cloud.InstanceCreate) (*cloud.Instance, error) {
	groupIDs := make([]string, 0, len(opts.SecurityGroups))
	for _, g := range opts.SecurityGroups {
		groupIDs = append(groupIDs, g.ID)
	}

	in := &ec2.RunInstancesInput{
		ImageId:           aws.String(opts.ImageID),
		InstanceType:      ec2types.InstanceType(opts.InstanceType),
		MinCount:          aws.Int32(1),
		MaxCount:          aws.Int32(1),
		TagSpecifications: nameTagSpec(ec2types.ResourceTypeInstance, opts.Name),
	}
	if opts.KeyPairName != "" {
		in.KeyName = aws.String(opts.KeyPairName)
	}
	if opts.UserData != "" {
		in.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(opts.UserData)))
	}
	if opts.Zone != "" {
		in.Placement = &ec2types.Placement{AvailabilityZone: aws.String(opts.Zone)}
	}
	if opts.SubnetID != "" {
		in.NetworkInterfaces = []ec2types.InstanceNetworkInterfaceSpecification{{
			DeviceIndex:              aws.Int32(0),
			SubnetId:                 aws.String(opts.SubnetID),
			Groups:                   groupIDs,
			AssociatePublicIpAddress: aws.Bool(true),
		}}
	} else if len(groupIDs) > 0 {
		in.SecurityGroupIds = groupIDs
	}

	out, err := s.p.ec2.RunInstances(ctx, in)
	if err != nil {
		return nil, mapError(err, "image", opts.ImageID)
	}
	if len(out.Instances) == 0 {
		return nil, fmt.Errorf("run instances returned no instance")
	}
	inst := toInstance(out.Instances[0])
	if inst.Name == "" {
		inst.Name = opts.Name
	}
	return &inst, nil
}

func (s instanceService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}})
	return mapError(err, "instance", id)
}

func (s instanceService) WaitTillReady(ctx context.Context, id string) (*cloud.Instance, error) {
	waiter := ec2.NewInstanceRunningWaiter(s.p.ec2)
	out, err := waiter.WaitForOutput(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, instanceReadyTimeout)
	if err != nil {
		return nil, fmt.Errorf("instance %q did not become ready: %w", id, mapError(err, "instance", id))
	}
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			converted := toInstance(inst)
			return &converted, nil
		}
	}
	return nil, fmt.Errorf("instance %q: %w", id, cloud.ErrNotFound)
}

// AddFloatingIP associates an allocated Elastic IP with the instance.
func (s instanceService) AddFloatingIP(ctx context.Context, id, ip string) error {
	out, err := s.p.ec2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{PublicIps: []string{ip}})
	if err != nil {
		return mapError(err, "address", ip)
	}
	if len(out.Addresses) == 0 {
		return fmt.Errorf("address %q: %w", ip, cloud.ErrNotFound)
	}
	in := &ec2.AssociateAddressInput{InstanceId: aws.String(id)}
	if alloc := out.Addresses[0].AllocationId; alloc != nil {
		in.AllocationId = alloc
	} else {
		in.PublicIp = aws.String(ip)
	}
	_, err = s.p.ec2.AssociateAddress(ctx, in)
	return mapError(err, "instance", id)
}
