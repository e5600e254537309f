package openstack

import (
	"context"
	"io"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

type unsupportedKeyPairs struct{}

func (unsupportedKeyPairs) List(context.Context) ([]cloud.KeyPair, error) {
	return nil, notSupported("key pairs")
}
func (unsupportedKeyPairs) Get(context.Context, string) (*cloud.KeyPair, error) {
	return nil, notSupported("key pairs")
}
func (unsupportedKeyPairs) Find(context.Context, string) ([]cloud.KeyPair, error) {
	return nil, notSupported("key pairs")
}
func (unsupportedKeyPairs) Create(context.Context, string) (*cloud.KeyPair, error) {
	return nil, notSupported("key pairs")
}
func (unsupportedKeyPairs) Delete(context.Context, string) error { return notSupported("key pairs") }

type unsupportedBlockStore struct{}

func (unsupportedBlockStore) Volumes() cloud.VolumeService     { return unsupportedVolumes{} }
func (unsupportedBlockStore) Snapshots() cloud.SnapshotService { return unsupportedSnapshots{} }

type unsupportedVolumes struct{}

func (unsupportedVolumes) List(context.Context) ([]cloud.Volume, error) {
	return nil, notSupported("volumes")
}
func (unsupportedVolumes) Get(context.Context, string) (*cloud.Volume, error) {
	return nil, notSupported("volumes")
}
func (unsupportedVolumes) Create(context.Context, cloud.VolumeCreate) (*cloud.Volume, error) {
	return nil, notSupported("volumes")
}
func (unsupportedVolumes) Delete(context.Context, string) error { return notSupported("volumes") }

type unsupportedSnapshots struct{}

func (unsupportedSnapshots) List(context.Context) ([]cloud.Snapshot, error) {
	return nil, notSupported("snapshots")
}
func (unsupportedSnapshots) Get(context.Context, string) (*cloud.Snapshot, error) {
	return nil, notSupported("snapshots")
}
func (unsupportedSnapshots) Create(context.Context, cloud.SnapshotCreate) (*cloud.Snapshot, error) {
	return nil, notSupported("snapshots")
}
func (unsupportedSnapshots) Delete(context.Context, string) error { return notSupported("snapshots") }

type unsupportedObjectStore struct{}

func (unsupportedObjectStore) List(context.Context) ([]cloud.Bucket, error) {
	return nil, notSupported("object store")
}
func (unsupportedObjectStore) Get(context.Context, string) (*cloud.Bucket, error) {
	return nil, notSupported("object store")
}
func (unsupportedObjectStore) Create(context.Context, string) (*cloud.Bucket, error) {
	return nil, notSupported("object store")
}
func (unsupportedObjectStore) Delete(context.Context, string) error {
	return notSupported("object store")
}
func (unsupportedObjectStore) Objects() cloud.ObjectService { return unsupportedObjects{} }

type unsupportedObjects struct{}

func (unsupportedObjects) List(context.Context, string) ([]cloud.Object, error) {
	return nil, notSupported("object store")
}
func (unsupportedObjects) Get(context.Context, string, string) (*cloud.Object, error) {
	return nil, notSupported("object store")
}
func (unsupportedObjects) Upload(context.Context, string, string, io.Reader, int64) (*cloud.Object, error) {
	return nil, notSupported("object store")
}
func (unsupportedObjects) Delete(context.Context, string, string) error {
	return notSupported("object store")
}
