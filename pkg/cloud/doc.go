// Package cloud is the multi-cloud abstraction the API and launch handlers
// work against.
//
// A Provider exposes five services: compute, security, network, block
// store and object store. Backends live in subpackages (aws, openstack,
// memory) and are wired by kind through a Registry.
//
// Lookups of missing resources wrap ErrNotFound; operations a backend
// cannot perform return ErrNotSupported.
package cloud
