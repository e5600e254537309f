package cloud

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is wrapped by every Get/Find style call whose target does
	// not exist on the cloud.
	ErrNotFound = errors.New("resource not found")
	// ErrNotSupported is returned for operations a backend cannot perform.
	ErrNotSupported = errors.New("operation not supported by this cloud")
	// ErrAuthentication means the cloud rejected the supplied credentials.
	ErrAuthentication = errors.New("cloud authentication failed")
)

// Provider is a handle to one cloud account.
type Provider interface {
	// CloudType returns the kind of cloud, e.g. "aws" or "openstack".
	CloudType() string
	Compute() ComputeService
	Security() SecurityService
	Network() NetworkService
	BlockStore() BlockStoreService
	ObjectStore() ObjectStoreService
}

type ComputeService interface {
	Regions() RegionService
	Images() ImageService
	InstanceTypes() InstanceTypeService
	Instances() InstanceService
}

type RegionService interface {
	List(ctx context.Context) ([]Region, error)
	Get(ctx context.Context, id string) (*Region, error)
	// Zones lists the placement zones of a region. A missing region yields
	// ErrNotFound.
	Zones(ctx context.Context, regionID string) ([]Zone, error)
}

type ImageService interface {
	List(ctx context.Context) ([]MachineImage, error)
	Get(ctx context.Context, id string) (*MachineImage, error)
	Create(ctx context.Context, opts ImageCreate) (*MachineImage, error)
	Delete(ctx context.Context, id string) error
}

type InstanceTypeService interface {
	List(ctx context.Context) ([]InstanceType, error)
	// FindByName returns every instance type called name, which may be none.
	FindByName(ctx context.Context, name string) ([]InstanceType, error)
}

type InstanceService interface {
	List(ctx context.Context) ([]Instance, error)
	Get(ctx context.Context, id string) (*Instance, error)
	Create(ctx context.Context, opts InstanceCreate) (*Instance, error)
	Delete(ctx context.Context, id string) error
	// WaitTillReady blocks until the instance is running, it enters an
	// error state, or ctx is done.
	WaitTillReady(ctx context.Context, id string) (*Instance, error)
	AddFloatingIP(ctx context.Context, id, ip string) error
}

type SecurityService interface {
	KeyPairs() KeyPairService
	SecurityGroups() SecurityGroupService
}

type KeyPairService interface {
	List(ctx context.Context) ([]KeyPair, error)
	Get(ctx context.Context, id string) (*KeyPair, error)
	Find(ctx context.Context, name string) ([]KeyPair, error)
	// Create returns the new key pair with its private material, which is
	// never available again afterwards.
	Create(ctx context.Context, name string) (*KeyPair, error)
	Delete(ctx context.Context, id string) error
}

type SecurityGroupService interface {
	List(ctx context.Context) ([]SecurityGroup, error)
	Get(ctx context.Context, id string) (*SecurityGroup, error)
	Find(ctx context.Context, name string) ([]SecurityGroup, error)
	Create(ctx context.Context, opts SecurityGroupCreate) (*SecurityGroup, error)
	Delete(ctx context.Context, id string) error

	ListRules(ctx context.Context, groupID string) ([]Rule, error)
	GetRule(ctx context.Context, groupID, ruleID string) (*Rule, error)
	AddRule(ctx context.Context, groupID string, opts RuleCreate) (*Rule, error)
	DeleteRule(ctx context.Context, groupID, ruleID string) error
}

type NetworkService interface {
	List(ctx context.Context) ([]Network, error)
	Get(ctx context.Context, id string) (*Network, error)
	Create(ctx context.Context, opts NetworkCreate) (*Network, error)
	Delete(ctx context.Context, id string) error
	Subnets() SubnetService
}

type SubnetService interface {
	// List returns the subnets of networkID, or all subnets when it is empty.
	List(ctx context.Context, networkID string) ([]Subnet, error)
	Get(ctx context.Context, id string) (*Subnet, error)
	Create(ctx context.Context, opts SubnetCreate) (*Subnet, error)
	Rename(ctx context.Context, id, name string) (*Subnet, error)
	Delete(ctx context.Context, id string) error
}

type BlockStoreService interface {
	Volumes() VolumeService
	Snapshots() SnapshotService
}

type VolumeService interface {
	List(ctx context.Context) ([]Volume, error)
	Get(ctx context.Context, id string) (*Volume, error)
	Create(ctx context.Context, opts VolumeCreate) (*Volume, error)
	Delete(ctx context.Context, id string) error
}

type SnapshotService interface {
	List(ctx context.Context) ([]Snapshot, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	Create(ctx context.Context, opts SnapshotCreate) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type ObjectStoreService interface {
	List(ctx context.Context) ([]Bucket, error)
	Get(ctx context.Context, name string) (*Bucket, error)
	Create(ctx context.Context, name string) (*Bucket, error)
	Delete(ctx context.Context, name string) error
	Objects() ObjectService
}

type ObjectService interface {
	List(ctx context.Context, bucket string) ([]Object, error)
	Get(ctx context.Context, bucket, key string) (*Object, error)
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64) (*Object, error)
	Delete(ctx context.Context, bucket, key string) error
}
