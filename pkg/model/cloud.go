package model

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

type CloudKind string

const (
	CloudKindAWS       CloudKind = "aws"
	CloudKindOpenStack CloudKind = "openstack"
	// CloudKindDummy is served by the in-memory provider and is only
	// accepted when the dummy cloud is enabled.
	CloudKindDummy CloudKind = "dummy"
)

// Cloud is a target infrastructure. Exactly one of AWS or OpenStack carries
// its connection details, according to Kind.
type Cloud struct {
	Slug      string     `gorm:"column:slug;primaryKey" json:"slug"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Kind      CloudKind  `gorm:"column:kind;not null" json:"kind"`
	Added     time.Time  `gorm:"column:added;autoCreateTime" json:"added"`
	Updated   time.Time  `gorm:"column:updated;autoUpdateTime" json:"updated"`
	AWS       *AWS       `gorm:"foreignKey:CloudSlug;references:Slug" json:"aws,omitempty"`
	OpenStack *OpenStack `gorm:"foreignKey:CloudSlug;references:Slug" json:"openstack,omitempty"`
}

func (Cloud) TableName() string {
	return "clouds"
}

func (c *Cloud) BeforeCreate(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return c.Validate()
}

func (c *Cloud) Validate() error {
	v := &ValidationError{}
	checkRequired(v, "name", c.Name)
	checkMaxLength(v, "name", c.Name, 60)
	switch c.Kind {
	case CloudKindAWS, CloudKindOpenStack, CloudKindDummy:
	default:
		v.Add("kind", `"`+string(c.Kind)+`" is not a valid choice.`)
	}
	if c.Kind == CloudKindOpenStack && c.OpenStack != nil {
		checkRequired(v, "openstack.auth_url", c.OpenStack.AuthURL)
	}
	return v.Err()
}

// Spec returns the connection details used to open a provider.
func (c *Cloud) Spec() cloud.Spec {
	spec := cloud.Spec{Slug: c.Slug, Kind: string(c.Kind)}
	switch {
	case c.AWS != nil:
		if c.AWS.EC2 != nil {
			spec.Region = c.AWS.EC2.RegionName
			spec.Endpoint = c.AWS.EC2.URL()
		}
		if c.AWS.S3 != nil {
			spec.ObjectStoreEndpoint = c.AWS.S3.URL()
		}
	case c.OpenStack != nil:
		spec.Region = c.OpenStack.RegionName
		spec.Endpoint = c.OpenStack.AuthURL
	}
	return spec
}

// AWS links a cloud to its EC2 and S3 endpoints. Either may be nil, in which
// case the SDK defaults for the region apply.
type AWS struct {
	CloudSlug string `gorm:"column:cloud_slug;primaryKey" json:"-"`
	EC2ID     *uint  `gorm:"column:ec2_id" json:"-"`
	EC2       *EC2   `gorm:"foreignKey:EC2ID" json:"compute,omitempty"`
	S3ID      *uint  `gorm:"column:s3_id" json:"-"`
	S3        *S3    `gorm:"foreignKey:S3ID" json:"object_store,omitempty"`
}

func (AWS) TableName() string {
	return "aws_clouds"
}

type EC2 struct {
	ID             uint   `gorm:"column:id;primaryKey" json:"id"`
	Name           string `gorm:"column:name" json:"name"`
	RegionName     string `gorm:"column:ec2_region_name" json:"ec2_region_name"`
	RegionEndpoint string `gorm:"column:ec2_region_endpoint" json:"ec2_region_endpoint"`
	ConnPath       string `gorm:"column:ec2_conn_path" json:"ec2_conn_path"`
	IsSecure       bool   `gorm:"column:ec2_is_secure" json:"ec2_is_secure"`
	Port           *int   `gorm:"column:ec2_port" json:"ec2_port"`
}

func (EC2) TableName() string {
	return "aws_ec2"
}

// URL assembles the endpoint URL, or returns "" to use the SDK default.
func (e *EC2) URL() string {
	return endpointURL(e.RegionEndpoint, e.IsSecure, e.Port, e.ConnPath)
}

type S3 struct {
	ID       uint   `gorm:"column:id;primaryKey" json:"id"`
	Name     string `gorm:"column:name" json:"name"`
	Host     string `gorm:"column:s3_host" json:"s3_host"`
	ConnPath string `gorm:"column:s3_conn_path" json:"s3_conn_path"`
	IsSecure bool   `gorm:"column:s3_is_secure" json:"s3_is_secure"`
	Port     *int   `gorm:"column:s3_port" json:"s3_port"`
}

func (S3) TableName() string {
	return "aws_s3"
}

func (s *S3) URL() string {
	return endpointURL(s.Host, s.IsSecure, s.Port, s.ConnPath)
}

func endpointURL(host string, secure bool, port *int, path string) string {
	if host == "" {
		return ""
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	if port != nil && *port > 0 {
		host = host + ":" + strconv.Itoa(*port)
	}
	if path == "" || path == "/" {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

type OpenStack struct {
	CloudSlug  string `gorm:"column:cloud_slug;primaryKey" json:"-"`
	AuthURL    string `gorm:"column:auth_url;not null" json:"auth_url"`
	RegionName string `gorm:"column:region_name" json:"region_name"`
}

func (OpenStack) TableName() string {
	return "openstack_clouds"
}

// CloudImage is a machine image registered for use by application versions.
type CloudImage struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	ImageID     string    `gorm:"column:image_id;not null" json:"image_id"`
	Description string    `gorm:"column:description" json:"description"`
	CloudSlug   string    `gorm:"column:cloud_slug;not null" json:"cloud"`
	Added       time.Time `gorm:"column:added;autoCreateTime" json:"added"`
	Updated     time.Time `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (CloudImage) TableName() string {
	return "cloud_images"
}
