package gorm

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// Ensure PublicServicesStore implements store.PublicServicesStore
var _ store.PublicServicesStore = (*PublicServicesStore)(nil)

// PublicServicesStore implements store.PublicServicesStore using GORM
type PublicServicesStore struct {
	db *gorm.DB
}

// NewPublicServicesStore creates a new PublicServicesStore
func NewPublicServicesStore(db *gorm.DB) *PublicServicesStore {
	return &PublicServicesStore{db: db}
}

func withServiceRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Location").Preload("Sponsors").Preload("Tags")
}

// ListPublicServices returns featured services first, then by name.
func (s *PublicServicesStore) ListPublicServices(page store.Page) ([]model.PublicService, int64, error) {
	var total int64
	if err := s.db.Model(&model.PublicService{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var services []model.PublicService
	err := s.db.Scopes(withServiceRelations, paginate(page)).Order("featured DESC, name").Find(&services).Error
	if err != nil {
		return nil, 0, err
	}
	return services, total, nil
}

func (s *PublicServicesStore) GetPublicService(slug string) (*model.PublicService, error) {
	var p model.PublicService
	if err := s.db.Scopes(withServiceRelations).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// CreatePublicService inserts the service. Tags are created on demand and
// sponsors must already exist.
func (s *PublicServicesStore) CreatePublicService(p *model.PublicService) error {
	return mapError(s.db.Omit("Location").Create(p).Error)
}

// UpdatePublicService saves the service and replaces its sponsors and tags.
func (s *PublicServicesStore) UpdatePublicService(p *model.PublicService) error {
	return mapError(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		if err := tx.Model(p).Association("Sponsors").Replace(p.Sponsors); err != nil {
			return err
		}
		return tx.Model(p).Association("Tags").Replace(p.Tags)
	}))
}

func (s *PublicServicesStore) DeletePublicService(slug string) error {
	return requireAffected(s.db.Where("slug = ?", slug).Delete(&model.PublicService{}))
}

func (s *PublicServicesStore) ListSponsors(page store.Page) ([]model.Sponsor, int64, error) {
	var total int64
	if err := s.db.Model(&model.Sponsor{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sponsors []model.Sponsor
	if err := s.db.Scopes(paginate(page)).Order("name").Find(&sponsors).Error; err != nil {
		return nil, 0, err
	}
	return sponsors, total, nil
}

func (s *PublicServicesStore) GetSponsor(id uint) (*model.Sponsor, error) {
	var sp model.Sponsor
	if err := s.db.Where("id = ?", id).First(&sp).Error; err != nil {
		return nil, mapError(err)
	}
	return &sp, nil
}

func (s *PublicServicesStore) CreateSponsor(sp *model.Sponsor) error {
	return mapError(s.db.Create(sp).Error)
}

func (s *PublicServicesStore) ListLocations(page store.Page) ([]model.Location, int64, error) {
	var total int64
	if err := s.db.Model(&model.Location{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var locations []model.Location
	if err := s.db.Scopes(paginate(page)).Order("id").Find(&locations).Error; err != nil {
		return nil, 0, err
	}
	return locations, total, nil
}

func (s *PublicServicesStore) GetLocation(id uint) (*model.Location, error) {
	var l model.Location
	if err := s.db.Where("id = ?", id).First(&l).Error; err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

func (s *PublicServicesStore) CreateLocation(l *model.Location) error {
	return mapError(s.db.Create(l).Error)
}

func (s *PublicServicesStore) FindOrCreateLocation(l *model.Location) error {
	return mapError(s.db.
		Where("latitude = ? AND longitude = ?", l.Latitude, l.Longitude).
		FirstOrCreate(l).Error)
}
