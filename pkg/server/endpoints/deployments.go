package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/audit"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/deploy"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/identity"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/tasks"
)

// DeploymentRequest is the body of POST /deployments/.
type DeploymentRequest struct {
	Name               string                 `json:"name"`
	Application        string                 `json:"application"`
	ApplicationVersion string                 `json:"application_version"`
	TargetCloud        string                 `json:"target_cloud"`
	ConfigApp          map[string]interface{} `json:"config_app"`
}

func (req *DeploymentRequest) validate() error {
	return requiredFields(map[string]string{
		"name":                req.Name,
		"application":         req.Application,
		"application_version": req.ApplicationVersion,
		"target_cloud":        req.TargetCloud,
	})
}

// DeploymentResponse is a deployment with the live state of its task.
type DeploymentResponse struct {
	model.ApplicationDeployment
	LatestTask *TaskResponse `json:"latest_task,omitempty"`
}

type TaskResponse struct {
	ID     string                 `json:"task_id"`
	State  tasks.State            `json:"status"`
	Action string                 `json:"action,omitempty"`
	Result json.RawMessage        `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

// deploymentResponse overlays the result backend's view of the task, which
// runs ahead of the stored status while a launch progresses.
func deploymentResponse(ctx context.Context, results tasks.ResultBackend, d *model.ApplicationDeployment) DeploymentResponse {
	resp := DeploymentResponse{ApplicationDeployment: *d}
	if results == nil || d.TaskID == "" {
		return resp
	}
	status, err := results.Get(ctx, d.TaskID)
	if err != nil {
		if !errors.Is(err, tasks.ErrNotFound) {
			log.WithError(err).WithField("task", d.TaskID).Warn("failed to read task state")
		}
		return resp
	}
	task := &TaskResponse{ID: status.ID, State: status.State, Result: status.Result, Error: status.Error, Meta: status.Meta}
	if action, ok := status.Meta["action"].(string); ok {
		task.Action = action
	}
	resp.LatestTask = task
	if !isTerminal(d.TaskStatus) {
		resp.TaskStatus = model.TaskStatus(status.State)
	}
	return resp
}

func isTerminal(s model.TaskStatus) bool {
	return s == model.TaskSuccess || s == model.TaskFailure
}

// RegisterDeploymentsEndpoints registers the launch requests of the caller.
func RegisterDeploymentsEndpoints(s *server.Server) {
	router := s.API.PathPrefix("/deployments").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("/", handleListDeployments(s.DeploymentsStore, s.Results, s.Config)).Methods("GET")
	router.HandleFunc("/", handleCreateDeployment(s, newProviderResolver(s))).Methods("POST")
	router.HandleFunc("/{id}/", handleGetDeployment(s.DeploymentsStore, s.Results)).Methods("GET")
}

func listDeployments(w http.ResponseWriter, r *http.Request, deployments store.DeploymentsStore, results tasks.ResultBackend, cfg *config.Config, filter store.DeploymentFilter) {
	p, err := parsePage(r, cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, count, err := deployments.ListDeployments(filter, p.store())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]DeploymentResponse, 0, len(list))
	for i := range list {
		out = append(out, deploymentResponse(r.Context(), results, &list[i]))
	}
	page, err := paginate(r, p, count, out)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func handleListDeployments(deployments store.DeploymentsStore, results tasks.ResultBackend, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		listDeployments(w, r, deployments, results, cfg, store.DeploymentFilter{OwnerID: id.UserID})
	}
}

func handleListCloudDeployments(deployments store.DeploymentsStore, results tasks.ResultBackend, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		listDeployments(w, r, deployments, results, cfg, store.DeploymentFilter{OwnerID: id.UserID, CloudSlug: pathVar(r, "cloud")})
	}
}

func handleGetDeployment(deployments store.DeploymentsStore, results tasks.ResultBackend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deploymentID, err := uintVar(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		id, _ := identity.Get(r.Context())
		d, err := deployments.GetDeployment(id.UserID, deploymentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, deploymentResponse(r.Context(), results, d))
	}
}

// handleCreateDeployment validates the request against the catalog,
// records the deployment and queues its launch. Credentials are resolved
// now, while the caller's headers are available, and travel sealed with
// the task.
func handleCreateDeployment(s *server.Server, providers *providerResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())

		var req DeploymentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, r, err)
			return
		}

		d, creds, err := prepareDeployment(r, s, providers, id, &req)
		if err != nil {
			writeError(w, r, err)
			return
		}

		event := audit.LaunchEvent{
			User:        id.Username,
			ClientIP:    remoteIP(id),
			Deployment:  d.Name,
			Application: req.Application,
			Version:     req.ApplicationVersion,
			Cloud:       d.TargetCloudSlug,
			TaskID:      d.TaskID,
			Phase:       audit.LaunchRequested,
		}

		if err := s.DeploymentsStore.CreateDeployment(d); err != nil {
			writeError(w, r, err)
			return
		}
		event.DeploymentID = d.ID

		if err := deploy.Submit(r.Context(), s.Broker, s.Results, s.Cipher, d, creds); err != nil {
			event.Phase = audit.LaunchFailed
			event.ErrorMessage = err.Error()
			audit.Log(event)
			failure, _ := json.Marshal(map[string]string{"error": "failed to queue launch"})
			if uerr := s.DeploymentsStore.UpdateDeploymentTask(d.ID, model.TaskFailure, string(failure)); uerr != nil {
				log.WithError(uerr).WithField("deployment", d.ID).Error("failed to record queueing failure")
			}
			writeError(w, r, err)
			return
		}
		audit.Log(event)

		respondWithJSON(w, http.StatusCreated, DeploymentResponse{ApplicationDeployment: *d})
	}
}

func prepareDeployment(r *http.Request, s *server.Server, providers *providerResolver, id *identity.Identity, req *DeploymentRequest) (*model.ApplicationDeployment, cloud.Credentials, error) {
	version, err := s.DeploymentsStore.FindApplicationVersion(req.Application, req.ApplicationVersion)
	if errors.Is(err, store.ErrNotFound) {
		return nil, cloud.Credentials{}, fieldError("application_version", "Invalid version for application "+req.Application+".")
	}
	if err != nil {
		return nil, cloud.Credentials{}, err
	}

	target, err := s.CloudsStore.GetCloud(req.TargetCloud)
	if errors.Is(err, store.ErrNotFound) {
		return nil, cloud.Credentials{}, fieldError("target_cloud", "Invalid cloud "+req.TargetCloud+".")
	}
	if err != nil {
		return nil, cloud.Credentials{}, err
	}

	cc, err := s.DeploymentsStore.FindCloudConfig(version.ID, target.Slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, cloud.Credentials{}, fieldError("target_cloud", "Version "+version.Version+" of "+req.Application+" cannot be launched on "+target.Slug+".")
	}
	if err != nil {
		return nil, cloud.Credentials{}, err
	}

	creds, err := providers.credentialsFor(r, target.Slug)
	if err != nil {
		return nil, cloud.Credentials{}, err
	}

	requested := ""
	if req.ConfigApp != nil {
		raw, err := json.Marshal(req.ConfigApp)
		if err != nil {
			return nil, cloud.Credentials{}, badRequest("Invalid config_app.")
		}
		requested = string(raw)
	}
	merged, err := deploy.LaunchConfig(version.Application, version, cc, requested)
	if err != nil {
		return nil, cloud.Credentials{}, fieldError("config_app", err.Error())
	}
	appConfig, err := json.Marshal(merged)
	if err != nil {
		return nil, cloud.Credentials{}, err
	}
	if err := model.ValidateLaunchConfig(string(appConfig)); err != nil {
		return nil, cloud.Credentials{}, fieldError("config_app", err.Error())
	}

	d := &model.ApplicationDeployment{
		Name:                 req.Name,
		OwnerID:              id.UserID,
		ApplicationVersionID: version.ID,
		TargetCloudSlug:      target.Slug,
		ApplicationConfig:    string(appConfig),
		TaskID:               uuid.NewString(),
		TaskStatus:           model.TaskPending,
	}
	d.InstanceType, d.PlacementZone, d.KeypairName, d.Network, d.Subnet = deploy.CloudLaunchSettings(merged)
	if d.InstanceType == "" {
		d.InstanceType = cc.DefaultInstanceType
	}
	return d, creds, nil
}

func fieldError(field, msg string) error {
	v := &model.ValidationError{}
	v.Add(field, msg)
	return v
}
