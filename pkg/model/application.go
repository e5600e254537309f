package model

import (
	"bytes"
	"time"

	"github.com/yuin/goldmark"
	"gorm.io/gorm"
)

// Application is a launchable appliance, described for the catalog and
// carrying a default launch configuration shared by all its versions.
type Application struct {
	Slug                string               `gorm:"column:slug;primaryKey" json:"slug"`
	Name                string               `gorm:"column:name;not null" json:"name"`
	Summary             string               `gorm:"column:summary" json:"summary"`
	Maintainer          string               `gorm:"column:maintainer" json:"maintainer"`
	Description         string               `gorm:"column:description" json:"description"`
	InfoURL             string               `gorm:"column:info_url" json:"info_url"`
	IconURL             string               `gorm:"column:icon_url" json:"icon_url"`
	DefaultLaunchConfig string               `gorm:"column:default_launch_config" json:"default_launch_config"`
	Added               time.Time            `gorm:"column:added;autoCreateTime" json:"added"`
	Updated             time.Time            `gorm:"column:updated;autoUpdateTime" json:"updated"`
	Versions            []ApplicationVersion `gorm:"foreignKey:ApplicationSlug;references:Slug" json:"versions"`
}

func (Application) TableName() string {
	return "applications"
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.Slug == "" {
		a.Slug = Slugify(a.Name)
	}
	return nil
}

func (a *Application) BeforeSave(tx *gorm.DB) error {
	return a.Validate()
}

func (a *Application) Validate() error {
	v := &ValidationError{}
	checkRequired(v, "name", a.Name)
	checkMaxLength(v, "name", a.Name, 60)
	checkMaxLength(v, "summary", a.Summary, 140)
	checkMaxLength(v, "maintainer", a.Maintainer, 255)
	checkLaunchConfig(v, "default_launch_config", a.DefaultLaunchConfig)
	return v.Err()
}

// DescriptionHTML renders the markdown description.
func (a *Application) DescriptionHTML() (string, error) {
	if a.Description == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(a.Description), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ApplicationVersion pins the components used to launch one release of an
// application. BackendComponentName selects the launch handler.
type ApplicationVersion struct {
	ID                    uint                            `gorm:"column:id;primaryKey" json:"id"`
	ApplicationSlug       string                          `gorm:"column:application_slug;not null" json:"application"`
	Application           *Application                    `gorm:"foreignKey:ApplicationSlug;references:Slug" json:"-"`
	Version               string                          `gorm:"column:version;not null" json:"version"`
	FrontendComponentPath string                          `gorm:"column:frontend_component_path" json:"frontend_component_path"`
	FrontendComponentName string                          `gorm:"column:frontend_component_name" json:"frontend_component_name"`
	BackendComponentName  string                          `gorm:"column:backend_component_name" json:"backend_component_name"`
	DefaultLaunchConfig   string                          `gorm:"column:default_launch_config" json:"default_launch_config"`
	CloudConfig           []ApplicationVersionCloudConfig `gorm:"foreignKey:ApplicationVersionID" json:"cloud_config"`
}

func (ApplicationVersion) TableName() string {
	return "application_versions"
}

func (v *ApplicationVersion) BeforeSave(tx *gorm.DB) error {
	return v.Validate()
}

func (v *ApplicationVersion) Validate() error {
	errs := &ValidationError{}
	checkRequired(errs, "version", v.Version)
	checkMaxLength(errs, "version", v.Version, 30)
	checkLaunchConfig(errs, "default_launch_config", v.DefaultLaunchConfig)
	return errs.Err()
}

// ApplicationVersionCloudConfig binds an application version to a cloud with
// the image and defaults to use there. There is at most one per
// (version, cloud).
type ApplicationVersionCloudConfig struct {
	ID                   uint        `gorm:"column:id;primaryKey" json:"id"`
	ApplicationVersionID uint        `gorm:"column:application_version_id;not null" json:"application_version"`
	CloudSlug            string      `gorm:"column:cloud_slug;not null" json:"cloud"`
	Cloud                *Cloud      `gorm:"foreignKey:CloudSlug;references:Slug" json:"-"`
	ImageID              uint        `gorm:"column:image_id;not null" json:"image_id"`
	Image                *CloudImage `gorm:"foreignKey:ImageID" json:"image,omitempty"`
	DefaultInstanceType  string      `gorm:"column:default_instance_type" json:"default_instance_type"`
	DefaultLaunchConfig  string      `gorm:"column:default_launch_config" json:"default_launch_config"`
}

func (ApplicationVersionCloudConfig) TableName() string {
	return "application_version_cloud_configs"
}

func (c *ApplicationVersionCloudConfig) BeforeSave(tx *gorm.DB) error {
	errs := &ValidationError{}
	checkRequired(errs, "cloud", c.CloudSlug)
	checkLaunchConfig(errs, "default_launch_config", c.DefaultLaunchConfig)
	return errs.Err()
}
