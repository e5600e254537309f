// Package openstack implements cloud.Provider on nova, neutron and glance
// using goose. Key pairs, block storage and object storage are not offered
// by this backend.
package openstack

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-goose/goose/v5/client"
	gooseerrors "github.com/go-goose/goose/v5/errors"
	"github.com/go-goose/goose/v5/glance"
	"github.com/go-goose/goose/v5/identity"
	"github.com/go-goose/goose/v5/neutron"
	"github.com/go-goose/goose/v5/nova"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

const Kind = "openstack"

// NovaAPI is the subset of the nova client the provider uses.
type NovaAPI interface {
	ListAvailabilityZones() ([]nova.AvailabilityZone, error)
	ListFlavorsDetail() ([]nova.FlavorDetail, error)
	ListServersDetail(filter *nova.Filter) ([]nova.ServerDetail, error)
	GetServer(serverID string) (*nova.ServerDetail, error)
	RunServer(opts nova.RunServerOpts) (*nova.Entity, error)
	DeleteServer(serverID string) error
	AddServerFloatingIP(serverID, address string) error
}

// NeutronAPI is the subset of the neutron client the provider uses.
type NeutronAPI interface {
	ListSecurityGroupsV2() ([]neutron.SecurityGroupV2, error)
	SecurityGroupByNameV2(name string) ([]neutron.SecurityGroupV2, error)
	CreateSecurityGroupV2(name, description string) (*neutron.SecurityGroupV2, error)
	DeleteSecurityGroupV2(groupID string) error
	CreateSecurityGroupRuleV2(rule neutron.RuleInfoV2) (*neutron.SecurityGroupRuleV2, error)
	DeleteSecurityGroupRuleV2(ruleID string) error
	ListNetworksV2(filter ...*neutron.Filter) ([]neutron.NetworkV2, error)
	GetNetworkV2(networkID string) (*neutron.NetworkV2, error)
	GetSubnetV2(subnetID string) (*neutron.SubnetV2, error)
	ListSubnetsV2() ([]neutron.SubnetV2, error)
}

// GlanceAPI is the subset of the glance client the provider uses.
type GlanceAPI interface {
	ListImagesDetail() ([]glance.ImageDetail, error)
	GetImageDetail(imageID string) (*glance.ImageDetail, error)
}

// Provider talks to one OpenStack project in one region.
type Provider struct {
	nova    NovaAPI
	neutron NeutronAPI
	glance  GlanceAPI
	region  string
}

var _ cloud.Provider = (*Provider)(nil)

// NewWithClients wraps existing clients. Tests use it with fakes.
func NewWithClients(n NovaAPI, nt NeutronAPI, g GlanceAPI, region string) *Provider {
	return &Provider{nova: n, neutron: nt, glance: g, region: region}
}

// newCredentials converts stored credentials to goose credentials and picks
// the keystone auth mode: v3 when asked for explicitly or when any domain
// is set, v2 otherwise.
func newCredentials(spec cloud.Spec, creds cloud.Credentials) (identity.Credentials, identity.AuthMode, error) {
	cred := identity.Credentials{
		URL:           spec.Endpoint,
		Region:        spec.Region,
		User:          creds.OSUsername,
		Secrets:       creds.OSPassword,
		TenantName:    creds.OSProjectName,
		ProjectDomain: creds.OSProjectDomainName,
		UserDomain:    creds.OSUserDomainName,
	}
	if cred.TenantName == "" {
		cred.TenantName = creds.OSTenantName
	}
	if cred.User == "" || cred.Secrets == "" {
		return identity.Credentials{}, 0, fmt.Errorf("openstack username and password are required: %w", cloud.ErrAuthentication)
	}

	if creds.OSIdentityAPIVersion != "" {
		version, err := strconv.Atoi(creds.OSIdentityAPIVersion)
		if err != nil {
			return identity.Credentials{}, 0, fmt.Errorf("identity api version %q is not an integer", creds.OSIdentityAPIVersion)
		}
		cred.Version = version
		if version < 3 {
			return cred, identity.AuthUserPass, nil
		}
		return cred, identity.AuthUserPassV3, nil
	}
	if cred.ProjectDomain != "" || cred.UserDomain != "" {
		return cred, identity.AuthUserPassV3, nil
	}
	return cred, identity.AuthUserPass, nil
}

// Open is the cloud.Factory for OpenStack clouds. It authenticates eagerly
// so bad credentials fail the request that used them.
func Open(ctx context.Context, spec cloud.Spec, creds cloud.Credentials) (cloud.Provider, error) {
	cred, mode, err := newCredentials(spec, creds)
	if err != nil {
		return nil, err
	}
	cl := client.NewClient(&cred, mode, nil)
	if err := cl.Authenticate(); err != nil {
		if gooseerrors.IsUnauthorised(err) {
			return nil, fmt.Errorf("%w: %v", cloud.ErrAuthentication, err)
		}
		return nil, fmt.Errorf("openstack authentication failed: %w", err)
	}

	return NewWithClients(nova.New(cl), neutron.New(cl), glance.New(cl), spec.Region), nil
}

func (p *Provider) CloudType() string { return Kind }

func (p *Provider) Compute() cloud.ComputeService   { return computeService{p} }
func (p *Provider) Security() cloud.SecurityService { return securityService{p} }
func (p *Provider) Network() cloud.NetworkService   { return networkService{p} }

func (p *Provider) BlockStore() cloud.BlockStoreService   { return unsupportedBlockStore{} }
func (p *Provider) ObjectStore() cloud.ObjectStoreService { return unsupportedObjectStore{} }

func mapError(err error, kind, id string) error {
	switch {
	case err == nil:
		return nil
	case gooseerrors.IsNotFound(err):
		return fmt.Errorf("%s %q: %w", kind, id, cloud.ErrNotFound)
	case gooseerrors.IsUnauthorised(err):
		return fmt.Errorf("%w: %v", cloud.ErrAuthentication, err)
	case gooseerrors.IsNotImplemented(err):
		return fmt.Errorf("%s: %w", kind, cloud.ErrNotSupported)
	}
	return fmt.Errorf("%s %q: %w", kind, id, err)
}

func notSupported(what string) error {
	return fmt.Errorf("openstack %s: %w", what, cloud.ErrNotSupported)
}
