package cloud

import "time"

// Instance states reported by every backend.
const (
	InstanceStatePending = "pending"
	InstanceStateRunning = "running"
	InstanceStateStopped = "stopped"
	InstanceStateDeleted = "deleted"
	InstanceStateError   = "error"
	InstanceStateUnknown = "unknown"
)

type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Zone struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RegionName string `json:"region_name"`
}

type MachineImage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	State       string `json:"state"`
}

type ImageCreate struct {
	Name       string `json:"name"`
	InstanceID string `json:"instance_id"`
}

type InstanceType struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Family string `json:"family,omitempty"`
	VCPUs  int    `json:"vcpus"`
	RAM    int    `json:"ram"`
	Disk   int    `json:"size_total_disk"`
}

type Instance struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	State            string   `json:"state"`
	PublicIPs        []string `json:"public_ips"`
	PrivateIPs       []string `json:"private_ips"`
	InstanceType     string   `json:"instance_type"`
	ImageID          string   `json:"image_id"`
	ZoneID           string   `json:"zone_id"`
	KeyPairName      string   `json:"key_pair_name"`
	SecurityGroupIDs []string `json:"security_group_ids"`
}

// InstanceCreate describes a new instance. SecurityGroups carries both the
// id and name of each group since backends address them differently.
type InstanceCreate struct {
	Name           string          `json:"name"`
	ImageID        string          `json:"image_id"`
	InstanceType   string          `json:"instance_type"`
	KeyPairName    string          `json:"key_pair_name"`
	SecurityGroups []SecurityGroup `json:"security_groups"`
	Zone           string          `json:"placement_zone"`
	NetworkID      string          `json:"network_id"`
	SubnetID       string          `json:"subnet_id"`
	UserData       string          `json:"user_data"`
}

type KeyPair struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Material string `json:"material,omitempty"`
}

type SecurityGroup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	NetworkID   string `json:"network_id,omitempty"`
	Rules       []Rule `json:"rules,omitempty"`
}

type SecurityGroupCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	NetworkID   string `json:"network_id"`
}

type Rule struct {
	ID         string `json:"id"`
	Protocol   string `json:"ip_protocol"`
	FromPort   int    `json:"from_port"`
	ToPort     int    `json:"to_port"`
	CIDR       string `json:"cidr_ip,omitempty"`
	SrcGroupID string `json:"src_group_id,omitempty"`
}

type RuleCreate struct {
	Protocol   string `json:"ip_protocol"`
	FromPort   int    `json:"from_port"`
	ToPort     int    `json:"to_port"`
	CIDR       string `json:"cidr_ip"`
	SrcGroupID string `json:"src_group_id"`
}

type Network struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	CIDR     string `json:"cidr_block"`
	External bool   `json:"external"`
	// Default marks the network a cloud uses when none is requested, such
	// as the default VPC on AWS.
	Default bool `json:"default"`
}

type NetworkCreate struct {
	Name string `json:"name"`
	CIDR string `json:"cidr_block"`
}

type Subnet struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NetworkID string `json:"network_id"`
	CIDR      string `json:"cidr_block"`
	Zone      string `json:"zone"`
}

type SubnetCreate struct {
	NetworkID string `json:"network_id"`
	Name      string `json:"name"`
	CIDR      string `json:"cidr_block"`
	Zone      string `json:"zone"`
}

type Volume struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Size        int       `json:"size"`
	Zone        string    `json:"zone_id"`
	State       string    `json:"state"`
	SnapshotID  string    `json:"source_snapshot_id,omitempty"`
	Created     time.Time `json:"create_time"`
}

type VolumeCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Size        int    `json:"size"`
	Zone        string `json:"zone_id"`
	SnapshotID  string `json:"snapshot_id"`
}

type Snapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VolumeID    string    `json:"volume_id"`
	Size        int       `json:"size"`
	State       string    `json:"state"`
	Created     time.Time `json:"create_time"`
}

type SnapshotCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	VolumeID    string `json:"volume_id"`
}

type Bucket struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Object struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
