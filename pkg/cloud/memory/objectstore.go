package memory

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

type objectStoreService struct{ p *Provider }

func (s objectStoreService) List(ctx context.Context) ([]cloud.Bucket, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	out := make([]cloud.Bucket, 0, len(s.p.buckets))
	for _, name := range sortedKeys(s.p.buckets) {
		out = append(out, cloud.Bucket{ID: name, Name: name})
	}
	return out, nil
}

func (s objectStoreService) Get(ctx context.Context, name string) (*cloud.Bucket, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if _, ok := s.p.buckets[name]; !ok {
		return nil, notFound("bucket", name)
	}
	return &cloud.Bucket{ID: name, Name: name}, nil
}

func (s objectStoreService) Create(ctx context.Context, name string) (*cloud.Bucket, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if _, ok := s.p.buckets[name]; ok {
		return nil, fmt.Errorf("bucket %q already exists", name)
	}
	s.p.buckets[name] = make(map[string]*cloud.Object)
	return &cloud.Bucket{ID: name, Name: name}, nil
}

func (s objectStoreService) Delete(ctx context.Context, name string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	objs, ok := s.p.buckets[name]
	if !ok {
		return notFound("bucket", name)
	}
	if len(objs) > 0 {
		return fmt.Errorf("bucket %q is not empty", name)
	}
	delete(s.p.buckets, name)
	return nil
}

func (s objectStoreService) Objects() cloud.ObjectService { return objectService(s) }

type objectService struct{ p *Provider }

func (s objectService) List(ctx context.Context, bucket string) ([]cloud.Object, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	objs, ok := s.p.buckets[bucket]
	if !ok {
		return nil, notFound("bucket", bucket)
	}
	out := make([]cloud.Object, 0, len(objs))
	for _, k := range sortedKeys(objs) {
		out = append(out, *objs[k])
	}
	return out, nil
}

func (s objectService) Get(ctx context.Context, bucket, key string) (*cloud.Object, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	objs, ok := s.p.buckets[bucket]
	if !ok {
		return nil, notFound("bucket", bucket)
	}
	obj, ok := objs[key]
	if !ok {
		return nil, notFound("object", key)
	}
	cp := *obj
	return &cp, nil
}

func (s objectService) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64) (*cloud.Object, error) {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	objs, ok := s.p.buckets[bucket]
	if !ok {
		return nil, notFound("bucket", bucket)
	}
	obj := &cloud.Object{ID: key, Name: key, Size: n, LastModified: time.Now().UTC()}
	objs[key] = obj
	cp := *obj
	return &cp, nil
}

func (s objectService) Delete(ctx context.Context, bucket, key string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	objs, ok := s.p.buckets[bucket]
	if !ok {
		return notFound("bucket", bucket)
	}
	if _, ok := objs[key]; !ok {
		return notFound("object", key)
	}
	delete(objs, key)
	return nil
}
