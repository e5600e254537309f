package model

import (
	"time"

	"gorm.io/gorm"
)

type Tag struct {
	Name string `gorm:"column:name;primaryKey" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

type Sponsor struct {
	ID   uint   `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;not null" json:"name"`
	URL  string `gorm:"column:url" json:"url"`
}

func (Sponsor) TableName() string {
	return "sponsors"
}

func (s *Sponsor) BeforeSave(tx *gorm.DB) error {
	v := &ValidationError{}
	checkRequired(v, "name", s.Name)
	checkMaxLength(v, "name", s.Name, 80)
	return v.Err()
}

type Location struct {
	ID        uint    `gorm:"column:id;primaryKey" json:"id"`
	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`
	City      string  `gorm:"column:city" json:"city"`
	Country   string  `gorm:"column:country" json:"country"`
}

func (Location) TableName() string {
	return "locations"
}

// PublicService is a publicly reachable deployment listed in the catalog.
// Its location is derived from the host in Links when it is saved.
type PublicService struct {
	Slug             string    `gorm:"column:slug;primaryKey" json:"slug"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	Links            string    `gorm:"column:links;not null" json:"links"`
	LocationID       *uint     `gorm:"column:location_id" json:"-"`
	Location         *Location `gorm:"foreignKey:LocationID" json:"location"`
	Purpose          string    `gorm:"column:purpose" json:"purpose"`
	Comments         string    `gorm:"column:comments" json:"comments"`
	EmailUserSupport string    `gorm:"column:email_user_support" json:"email_user_support"`
	Quotas           string    `gorm:"column:quotas" json:"quotas"`
	Featured         bool      `gorm:"column:featured" json:"featured"`
	ApplicationSlug  *string   `gorm:"column:application_slug" json:"application"`
	Logo             string    `gorm:"column:logo" json:"logo"`
	Sponsors         []Sponsor `gorm:"many2many:public_service_sponsors;joinForeignKey:PublicServiceSlug;joinReferences:SponsorID" json:"sponsors"`
	Tags             []Tag     `gorm:"many2many:public_service_tags;joinForeignKey:PublicServiceSlug;joinReferences:TagName" json:"tags"`
	Added            time.Time `gorm:"column:added;autoCreateTime" json:"added"`
	Updated          time.Time `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (PublicService) TableName() string {
	return "public_services"
}

func (p *PublicService) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	return nil
}

func (p *PublicService) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

func (p *PublicService) Validate() error {
	v := &ValidationError{}
	checkRequired(v, "name", p.Name)
	checkMaxLength(v, "name", p.Name, 60)
	checkRequired(v, "links", p.Links)
	return v.Err()
}
