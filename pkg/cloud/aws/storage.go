package aws

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

type blockStoreService struct{ p *Provider }

func (b blockStoreService) Volumes() cloud.VolumeService     { return volumeService(b) }
func (b blockStoreService) Snapshots() cloud.SnapshotService { return snapshotService(b) }

type volumeService struct{ p *Provider }

func toVolume(v ec2types.Volume) cloud.Volume {
	return cloud.Volume{
		ID:         aws.ToString(v.VolumeId),
		Name:       nameTag(v.Tags),
		Size:       int(aws.ToInt32(v.Size)),
		Zone:       aws.ToString(v.AvailabilityZone),
		State:      string(v.State),
		SnapshotID: aws.ToString(v.SnapshotId),
		Created:    aws.ToTime(v.CreateTime),
	}
}

func (s volumeService) List(ctx context.Context) ([]cloud.Volume, error) {
	out, err := s.p.ec2.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{})
	if err != nil {
		return nil, mapError(err, "volumes", "")
	}
	volumes := make([]cloud.Volume, 0, len(out.Volumes))
	for _, v := range out.Volumes {
		volumes = append(volumes, toVolume(v))
	}
	return volumes, nil
}

func (s volumeService) Get(ctx context.Context, id string) (*cloud.Volume, error) {
	out, err := s.p.ec2.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{id}})
	if err != nil {
		return nil, mapError(err, "volume", id)
	}
	if len(out.Volumes) == 0 {
		return nil, fmt.Errorf("volume %q: %w", id, cloud.ErrNotFound)
	}
	v := toVolume(out.Volumes[0])
	return &v, nil
}

func (s volumeService) Create(ctx context.Context, opts cloud.VolumeCreate) (*cloud.Volume, error) {
	in := &ec2.CreateVolumeInput{
		AvailabilityZone:  aws.String(opts.Zone),
		Size:              aws.Int32(int32(opts.Size)),
		TagSpecifications: nameTagSpec(ec2types.ResourceTypeVolume, opts.Name),
	}
	if opts.SnapshotID != "" {
		in.SnapshotId = aws.String(opts.SnapshotID)
	}
	out, err := s.p.ec2.CreateVolume(ctx, in)
	if err != nil {
		return nil, mapError(err, "volume", opts.Name)
	}
	return &cloud.Volume{
		ID:          aws.ToString(out.VolumeId),
		Name:        opts.Name,
		Description: opts.Description,
		Size:        int(aws.ToInt32(out.Size)),
		Zone:        aws.ToString(out.AvailabilityZone),
		State:       string(out.State),
		SnapshotID:  aws.ToString(out.SnapshotId),
		Created:     aws.ToTime(out.CreateTime),
	}, nil
}

func (s volumeService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.DeleteVolume(ctx, &ec2.DeleteVolumeInput{VolumeId: aws.String(id)})
	return mapError(err, "volume", id)
}

type snapshotService struct{ p *Provider }

func toSnapshot(sn ec2types.Snapshot) cloud.Snapshot {
	return cloud.Snapshot{
		ID:          aws.ToString(sn.SnapshotId),
		Name:        nameTag(sn.Tags),
		Description: aws.ToString(sn.Description),
		VolumeID:    aws.ToString(sn.VolumeId),
		Size:        int(aws.ToInt32(sn.VolumeSize)),
		State:       string(sn.State),
		Created:     aws.ToTime(sn.StartTime),
	}
}

func (s snapshotService) List(ctx context.Context) ([]cloud.Snapshot, error) {
	out, err := s.p.ec2.DescribeSnapshots(ctx, &ec2.DescribeSnapshotsInput{OwnerIds: []string{"self"}})
	if err != nil {
		return nil, mapError(err, "snapshots", "")
	}
	snaps := make([]cloud.Snapshot, 0, len(out.Snapshots))
	for _, sn := range out.Snapshots {
		snaps = append(snaps, toSnapshot(sn))
	}
	return snaps, nil
}

func (s snapshotService) Get(ctx context.Context, id string) (*cloud.Snapshot, error) {
	out, err := s.p.ec2.DescribeSnapshots(ctx, &ec2.DescribeSnapshotsInput{SnapshotIds: []string{id}})
	if err != nil {
		return nil, mapError(err, "snapshot", id)
	}
	if len(out.Snapshots) == 0 {
		return nil, fmt.Errorf("snapshot %q: %w", id, cloud.ErrNotFound)
	}
	sn := toSnapshot(out.Snapshots[0])
	return &sn, nil
}

func (s snapshotService) Create(ctx context.Context, opts cloud.SnapshotCreate) (*cloud.Snapshot, error) {
	out, err := s.p.ec2.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId:          aws.String(opts.VolumeID),
		Description:       aws.String(opts.Description),
		TagSpecifications: nameTagSpec(ec2types.ResourceTypeSnapshot, opts.Name),
	})
	if err != nil {
		return nil, mapError(err, "volume", opts.VolumeID)
	}
	return &cloud.Snapshot{
		ID:          aws.ToString(out.SnapshotId),
		Name:        opts.Name,
		Description: opts.Description,
		VolumeID:    aws.ToString(out.VolumeId),
		Size:        int(aws.ToInt32(out.VolumeSize)),
		State:       string(out.State),
		Created:     aws.ToTime(out.StartTime),
	}, nil
}

func (s snapshotService) Delete(ctx context.Context, id string) error {
	_, err := s.p.ec2.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{SnapshotId: aws.String(id)})
	return mapError(err, "snapshot", id)
}

type objectStoreService struct{ p *Provider }

func (s objectStoreService) Objects() cloud.ObjectService { return objectService(s) }

func (s objectStoreService) List(ctx context.Context) ([]cloud.Bucket, error) {
	out, err := s.p.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, mapError(err, "buckets", "")
	}
	buckets := make([]cloud.Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		buckets = append(buckets, cloud.Bucket{ID: name, Name: name})
	}
	return buckets, nil
}

func (s objectStoreService) Get(ctx context.Context, name string) (*cloud.Bucket, error) {
	if _, err := s.p.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)}); err != nil {
		return nil, mapS3Error(err, "bucket", name)
	}
	return &cloud.Bucket{ID: name, Name: name}, nil
}

func (s objectStoreService) Create(ctx context.Context, name string) (*cloud.Bucket, error) {
	in := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if s.p.region != DefaultRegion {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.p.region),
		}
	}
	if _, err := s.p.s3.CreateBucket(ctx, in); err != nil {
		return nil, mapS3Error(err, "bucket", name)
	}
	return &cloud.Bucket{ID: name, Name: name}, nil
}

func (s objectStoreService) Delete(ctx context.Context, name string) error {
	_, err := s.p.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)})
	return mapS3Error(err, "bucket", name)
}

type objectService struct{ p *Provider }

func (s objectService) List(ctx context.Context, bucket string) ([]cloud.Object, error) {
	var objects []cloud.Object
	pager := s3.NewListObjectsV2Paginator(s.p.s3, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error(err, "bucket", bucket)
		}
		for _, o := range page.Contents {
			key := aws.ToString(o.Key)
			objects = append(objects, cloud.Object{
				ID:           key,
				Name:         key,
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}
	return objects, nil
}

func (s objectService) Get(ctx context.Context, bucket, key string) (*cloud.Object, error) {
	out, err := s.p.s3.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, mapS3Error(err, "object", key)
	}
	return &cloud.Object{
		ID:           key,
		Name:         key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s objectService) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64) (*cloud.Object, error) {
	_, err := s.p.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, mapS3Error(err, "bucket", bucket)
	}
	return s.Get(ctx, bucket, key)
}

func (s objectService) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.p.s3.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	return mapS3Error(err, "object", key)
}

// mapS3Error adds the modeled S3 not-found types, which HeadBucket and
// HeadObject return without an error code body.
func mapS3Error(err error, kind, id string) error {
	var noBucket *s3types.NoSuchBucket
	var noKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if errors.As(err, &noBucket) || errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%s %q: %w", kind, id, cloud.ErrNotFound)
	}
	return mapError(err, kind, id)
}
