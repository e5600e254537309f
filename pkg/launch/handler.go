package launch

import (
	"context"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

// Reporter receives progress while a handler runs.
type Reporter interface {
	Progress(ctx context.Context, action string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, action string)

func (f ReporterFunc) Progress(ctx context.Context, action string) { f(ctx, action) }

// CloudConfig is the per-cloud part of an application version a handler
// launches from.
type CloudConfig struct {
	CloudSlug           string `json:"cloud"`
	CloudKind           string `json:"cloud_kind"`
	ImageID             string `json:"image_id"`
	DefaultInstanceType string `json:"default_instance_type"`
}

// Request is everything a handler needs for one launch.
type Request struct {
	Name        string
	CloudConfig CloudConfig
	Provider    cloud.Provider
	AppConfig   map[string]interface{}
	UserData    map[string]interface{}
}

// Result is the JSON document stored as the deployment's task result.
type Result map[string]interface{}

// Handler launches one kind of application.
type Handler interface {
	// ProcessAppConfig turns the merged launch config into the user data
	// passed to the instance.
	ProcessAppConfig(name string, cfg CloudConfig, creds cloud.Credentials, appConfig map[string]interface{}) (map[string]interface{}, error)

	LaunchApp(ctx context.Context, r Reporter, req Request) (Result, error)
}
