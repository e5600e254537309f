package endpoints

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// MockApplicationsStore implements store.ApplicationsStore for testing using testify/mock
type MockApplicationsStore struct {
	mock.Mock
}

func (m *MockApplicationsStore) ListApplications(page store.Page) ([]model.Application, int64, error) {
	args := m.Called(page)
	return args.Get(0).([]model.Application), args.Get(1).(int64), args.Error(2)
}

func (m *MockApplicationsStore) GetApplication(slug string) (*model.Application, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationsStore) CreateApplication(app *model.Application) error {
	return m.Called(app).Error(0)
}

func (m *MockApplicationsStore) UpdateApplication(app *model.Application) error {
	return m.Called(app).Error(0)
}

func (m *MockApplicationsStore) DeleteApplication(slug string) error {
	return m.Called(slug).Error(0)
}

// MockCloudsStore implements store.CloudsStore for testing using testify/mock
type MockCloudsStore struct {
	mock.Mock
}

func (m *MockCloudsStore) ListClouds(page store.Page) ([]model.Cloud, int64, error) {
	args := m.Called(page)
	return args.Get(0).([]model.Cloud), args.Get(1).(int64), args.Error(2)
}

func (m *MockCloudsStore) GetCloud(slug string) (*model.Cloud, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cloud), args.Error(1)
}

func (m *MockCloudsStore) CreateCloud(c *model.Cloud) error { return m.Called(c).Error(0) }
func (m *MockCloudsStore) UpdateCloud(c *model.Cloud) error { return m.Called(c).Error(0) }
func (m *MockCloudsStore) DeleteCloud(slug string) error    { return m.Called(slug).Error(0) }

// MockDeploymentsStore implements store.DeploymentsStore for testing using testify/mock
type MockDeploymentsStore struct {
	mock.Mock
}

func (m *MockDeploymentsStore) ListDeployments(filter store.DeploymentFilter, page store.Page) ([]model.ApplicationDeployment, int64, error) {
	args := m.Called(filter, page)
	return args.Get(0).([]model.ApplicationDeployment), args.Get(1).(int64), args.Error(2)
}

func (m *MockDeploymentsStore) GetDeployment(ownerID, id uint) (*model.ApplicationDeployment, error) {
	args := m.Called(ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplicationDeployment), args.Error(1)
}

func (m *MockDeploymentsStore) CreateDeployment(d *model.ApplicationDeployment) error {
	return m.Called(d).Error(0)
}

func (m *MockDeploymentsStore) FindApplicationVersion(appSlug, version string) (*model.ApplicationVersion, error) {
	args := m.Called(appSlug, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplicationVersion), args.Error(1)
}

func (m *MockDeploymentsStore) FindCloudConfig(versionID uint, cloudSlug string) (*model.ApplicationVersionCloudConfig, error) {
	args := m.Called(versionID, cloudSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplicationVersionCloudConfig), args.Error(1)
}

func (m *MockDeploymentsStore) GetDeploymentForLaunch(id uint) (*model.ApplicationDeployment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplicationDeployment), args.Error(1)
}

func (m *MockDeploymentsStore) UpdateDeploymentTask(id uint, status model.TaskStatus, result string) error {
	return m.Called(id, status, result).Error(0)
}

// MockUsersStore implements store.UsersStore for testing using testify/mock
type MockUsersStore struct {
	mock.Mock
}

func (m *MockUsersStore) GetUser(id uint) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsersStore) FindUserByUsername(username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsersStore) CreateUser(u *model.User) error       { return m.Called(u).Error(0) }
func (m *MockUsersStore) UpdateUser(u *model.User) error       { return m.Called(u).Error(0) }
func (m *MockUsersStore) CreateToken(t *model.AuthToken) error { return m.Called(t).Error(0) }
func (m *MockUsersStore) DeleteToken(jti string) error         { return m.Called(jti).Error(0) }

func (m *MockUsersStore) GetToken(jti string) (*model.AuthToken, error) {
	args := m.Called(jti)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthToken), args.Error(1)
}

func (m *MockUsersStore) DeleteUserTokens(userID uint, keepJTI string) error {
	return m.Called(userID, keepJTI).Error(0)
}

// MockCredentialsStore implements store.CredentialsStore for testing using testify/mock
type MockCredentialsStore struct {
	mock.Mock
}

func (m *MockCredentialsStore) ListCredentials(profileSlug string, kind model.CloudKind) ([]model.Credentials, error) {
	args := m.Called(profileSlug, kind)
	return args.Get(0).([]model.Credentials), args.Error(1)
}

func (m *MockCredentialsStore) GetCredentials(profileSlug string, id uint) (*model.Credentials, error) {
	args := m.Called(profileSlug, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credentials), args.Error(1)
}

func (m *MockCredentialsStore) FindDefaultCredentials(profileSlug, cloudSlug string) (*model.Credentials, error) {
	args := m.Called(profileSlug, cloudSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credentials), args.Error(1)
}

func (m *MockCredentialsStore) CreateCredentials(c *model.Credentials) error {
	return m.Called(c).Error(0)
}

func (m *MockCredentialsStore) UpdateCredentials(c *model.Credentials) error {
	return m.Called(c).Error(0)
}

func (m *MockCredentialsStore) DeleteCredentials(profileSlug string, id uint) error {
	return m.Called(profileSlug, id).Error(0)
}

// MockPublicServicesStore implements store.PublicServicesStore for testing using testify/mock
type MockPublicServicesStore struct {
	mock.Mock
}

func (m *MockPublicServicesStore) ListPublicServices(page store.Page) ([]model.PublicService, int64, error) {
	args := m.Called(page)
	return args.Get(0).([]model.PublicService), args.Get(1).(int64), args.Error(2)
}

func (m *MockPublicServicesStore) GetPublicService(slug string) (*model.PublicService, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublicService), args.Error(1)
}

func (m *MockPublicServicesStore) CreatePublicService(p *model.PublicService) error {
	return m.Called(p).Error(0)
}

func (m *MockPublicServicesStore) UpdatePublicService(p *model.PublicService) error {
	return m.Called(p).Error(0)
}

func (m *MockPublicServicesStore) DeletePublicService(slug string) error {
	return m.Called(slug).Error(0)
}

func (m *MockPublicServicesStore) ListSponsors(page store.Page) ([]model.Sponsor, int64, error) {
	args := m.Called(page)
	return args.Get(0).([]model.Sponsor), args.Get(1).(int64), args.Error(2)
}

func (m *MockPublicServicesStore) GetSponsor(id uint) (*model.Sponsor, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sponsor), args.Error(1)
}

func (m *MockPublicServicesStore) CreateSponsor(s *model.Sponsor) error {
	return m.Called(s).Error(0)
}

func (m *MockPublicServicesStore) ListLocations(page store.Page) ([]model.Location, int64, error) {
	args := m.Called(page)
	return args.Get(0).([]model.Location), args.Get(1).(int64), args.Error(2)
}

func (m *MockPublicServicesStore) GetLocation(id uint) (*model.Location, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Location), args.Error(1)
}

func (m *MockPublicServicesStore) CreateLocation(l *model.Location) error {
	return m.Called(l).Error(0)
}

func (m *MockPublicServicesStore) FindOrCreateLocation(l *model.Location) error {
	return m.Called(l).Error(0)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) Ping(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *MockHealthStore) Schema(ctx context.Context) (*store.SchemaState, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SchemaState), args.Error(1)
}

var (
	_ store.ApplicationsStore   = (*MockApplicationsStore)(nil)
	_ store.CloudsStore         = (*MockCloudsStore)(nil)
	_ store.DeploymentsStore    = (*MockDeploymentsStore)(nil)
	_ store.UsersStore          = (*MockUsersStore)(nil)
	_ store.CredentialsStore    = (*MockCredentialsStore)(nil)
	_ store.PublicServicesStore = (*MockPublicServicesStore)(nil)
	_ store.HealthStore         = (*MockHealthStore)(nil)
)
