package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/audit"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/launch"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/tasks"
)

// TaskName is the registered name of the launch task.
const TaskName = "launch_appliance"

var log = logging.New("deploy")

var ErrNoCloudConfig = errors.New("application version is not available on this cloud")

// Store is the part of the deployments store the task uses.
type Store interface {
	GetDeploymentForLaunch(id uint) (*model.ApplicationDeployment, error)
	FindCloudConfig(versionID uint, cloudSlug string) (*model.ApplicationVersionCloudConfig, error)
	UpdateDeploymentTask(id uint, status model.TaskStatus, result string) error
}

// Payload is the JSON body of a launch_appliance task.
type Payload struct {
	DeploymentID uint   `json:"deployment_id"`
	Credentials  string `json:"credentials"`
}

func credentialsAAD(taskID string) string {
	return "task/" + taskID
}

// SealCredentials encrypts creds for the task with id taskID.
func SealCredentials(c encryption.Cipher, taskID string, creds cloud.Credentials) (string, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}
	return encryption.EncryptString(c, credentialsAAD(taskID), string(raw))
}

// OpenCredentials reverses SealCredentials.
func OpenCredentials(c encryption.Cipher, taskID, sealed string) (cloud.Credentials, error) {
	var creds cloud.Credentials
	plain, err := encryption.DecryptString(c, credentialsAAD(taskID), sealed)
	if err != nil {
		return creds, fmt.Errorf("failed to open task credentials: %w", err)
	}
	if plain == "" {
		return creds, nil
	}
	if err := json.Unmarshal([]byte(plain), &creds); err != nil {
		return creds, fmt.Errorf("failed to decode task credentials: %w", err)
	}
	return creds, nil
}

// Submit enqueues the launch of d, which must already carry its TaskID.
func Submit(ctx context.Context, b tasks.Broker, results tasks.ResultBackend, c encryption.Cipher, d *model.ApplicationDeployment, creds cloud.Credentials) error {
	sealed, err := SealCredentials(c, d.TaskID, creds)
	if err != nil {
		return err
	}
	t, err := tasks.NewTask(TaskName, Payload{DeploymentID: d.ID, Credentials: sealed})
	if err != nil {
		return err
	}
	t.ID = d.TaskID
	_, err = tasks.Submit(ctx, b, results, t)
	return err
}

// Launcher runs launch_appliance tasks.
type Launcher struct {
	store    Store
	clouds   *cloud.Registry
	handlers *launch.Registry
	cipher   encryption.Cipher
}

func NewLauncher(store Store, clouds *cloud.Registry, handlers *launch.Registry, c encryption.Cipher) *Launcher {
	return &Launcher{store: store, clouds: clouds, handlers: handlers, cipher: c}
}

// Register adds the launch task to a worker registry.
func (l *Launcher) Register(r *tasks.Registry) {
	r.Register(TaskName, l.Run)
}

// Run is the tasks.Func of launch_appliance. The deployment record follows
// the task: STARTED when it begins, then SUCCESS with the handler result or
// FAILURE with the error.
func (l *Launcher) Run(ctx context.Context, r *tasks.Reporter, payload json.RawMessage) (interface{}, error) {
	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", TaskName, err)
	}

	d, err := l.store.GetDeploymentForLaunch(p.DeploymentID)
	if err != nil {
		return nil, fmt.Errorf("load deployment %d: %w", p.DeploymentID, err)
	}
	logger := log.WithField("deployment", d.ID).WithField("task", r.TaskID())

	if err := l.store.UpdateDeploymentTask(d.ID, model.TaskStarted, ""); err != nil {
		logger.WithError(err).Warn("failed to mark deployment started")
	}

	result, err := l.launch(ctx, r, d, p)
	event := launchEvent(d, r.TaskID())
	if err != nil {
		event.Phase = audit.LaunchFailed
		event.ErrorMessage = err.Error()
		audit.Log(event)

		failure, _ := json.Marshal(map[string]string{"error": err.Error()})
		if uerr := l.store.UpdateDeploymentTask(d.ID, model.TaskFailure, string(failure)); uerr != nil {
			logger.WithError(uerr).Error("failed to record deployment failure")
		}
		return nil, err
	}

	event.Phase = audit.LaunchSucceeded
	audit.Log(event)

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := l.store.UpdateDeploymentTask(d.ID, model.TaskSuccess, string(raw)); err != nil {
		logger.WithError(err).Error("failed to record deployment result")
	}
	return result, nil
}

func (l *Launcher) launch(ctx context.Context, r *tasks.Reporter, d *model.ApplicationDeployment, p Payload) (launch.Result, error) {
	if d.ApplicationVersion == nil || d.TargetCloud == nil {
		return nil, fmt.Errorf("deployment %d is missing its version or cloud", d.ID)
	}

	handler, err := l.handlers.Resolve(d.ApplicationVersion.BackendComponentName)
	if err != nil {
		return nil, err
	}

	cc, err := l.store.FindCloudConfig(d.ApplicationVersionID, d.TargetCloudSlug)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCloudConfig, d.TargetCloudSlug)
	}
	if cc.Image == nil {
		return nil, fmt.Errorf("cloud config %d has no image", cc.ID)
	}

	creds, err := OpenCredentials(l.cipher, r.TaskID(), p.Credentials)
	if err != nil {
		return nil, err
	}

	provider, err := l.clouds.Open(ctx, d.TargetCloud.Spec(), creds)
	if err != nil {
		return nil, fmt.Errorf("open cloud %s: %w", d.TargetCloudSlug, err)
	}

	appConfig, err := LaunchConfig(d.ApplicationVersion.Application, d.ApplicationVersion, cc, d.ApplicationConfig)
	if err != nil {
		return nil, err
	}

	cloudConfig := launch.CloudConfig{
		CloudSlug:           d.TargetCloudSlug,
		CloudKind:           string(d.TargetCloud.Kind),
		ImageID:             cc.Image.ImageID,
		DefaultInstanceType: cc.DefaultInstanceType,
	}
	userData, err := handler.ProcessAppConfig(d.Name, cloudConfig, creds, appConfig)
	if err != nil {
		return nil, fmt.Errorf("process app config: %w", err)
	}

	return handler.LaunchApp(ctx, r, launch.Request{
		Name:        d.Name,
		CloudConfig: cloudConfig,
		Provider:    provider,
		AppConfig:   appConfig,
		UserData:    userData,
	})
}

func launchEvent(d *model.ApplicationDeployment, taskID string) audit.LaunchEvent {
	e := audit.LaunchEvent{
		DeploymentID: d.ID,
		Deployment:   d.Name,
		Cloud:        d.TargetCloudSlug,
		TaskID:       taskID,
	}
	if v := d.ApplicationVersion; v != nil {
		e.Application = v.ApplicationSlug
		e.Version = v.Version
	}
	return e
}
