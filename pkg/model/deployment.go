package model

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus mirrors the states reported by the background worker.
type TaskStatus string

const (
	TaskPending     TaskStatus = "PENDING"
	TaskStarted     TaskStatus = "STARTED"
	TaskProgressing TaskStatus = "PROGRESSING"
	TaskSuccess     TaskStatus = "SUCCESS"
	TaskFailure     TaskStatus = "FAILURE"
)

// ApplicationDeployment records a launch request and the outcome of the
// task that carried it out.
type ApplicationDeployment struct {
	ID                   uint                `gorm:"column:id;primaryKey" json:"id"`
	Name                 string              `gorm:"column:name;not null" json:"name"`
	OwnerID              uint                `gorm:"column:owner_id;not null" json:"owner"`
	ApplicationVersionID uint                `gorm:"column:application_version_id;not null" json:"application_version"`
	ApplicationVersion   *ApplicationVersion `gorm:"foreignKey:ApplicationVersionID" json:"-"`
	TargetCloudSlug      string              `gorm:"column:target_cloud_slug;not null" json:"target_cloud"`
	TargetCloud          *Cloud              `gorm:"foreignKey:TargetCloudSlug;references:Slug" json:"-"`
	InstanceType         string              `gorm:"column:instance_type" json:"instance_type"`
	PlacementZone        string              `gorm:"column:placement_zone" json:"placement_zone"`
	KeypairName          string              `gorm:"column:keypair_name" json:"keypair_name"`
	Network              string              `gorm:"column:network" json:"network"`
	Subnet               string              `gorm:"column:subnet" json:"subnet"`
	ProviderSettings     string              `gorm:"column:provider_settings" json:"provider_settings"`
	ApplicationConfig    string              `gorm:"column:application_config" json:"application_config"`
	TaskID               string              `gorm:"column:task_id;uniqueIndex" json:"task_id"`
	TaskStatus           TaskStatus          `gorm:"column:task_status" json:"task_status"`
	TaskResult           string              `gorm:"column:task_result" json:"task_result"`
	Added                time.Time           `gorm:"column:added;autoCreateTime" json:"added"`
	Updated              time.Time           `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (ApplicationDeployment) TableName() string {
	return "application_deployments"
}

func (d *ApplicationDeployment) BeforeCreate(tx *gorm.DB) error {
	if d.TaskStatus == "" {
		d.TaskStatus = TaskPending
	}
	return d.Validate()
}

func (d *ApplicationDeployment) Validate() error {
	v := &ValidationError{}
	checkRequired(v, "name", d.Name)
	checkMaxLength(v, "name", d.Name, 60)
	if d.ApplicationVersionID == 0 {
		v.Add("application_version", "This field is required.")
	}
	checkRequired(v, "target_cloud", d.TargetCloudSlug)
	checkLaunchConfig(v, "application_config", d.ApplicationConfig)
	return v.Err()
}
