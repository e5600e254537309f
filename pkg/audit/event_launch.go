package audit

import (
	"fmt"
	"strconv"
)

// Launch phases
const (
	LaunchRequested = "requested"
	LaunchSucceeded = "succeeded"
	LaunchFailed    = "failed"
)

// LaunchEvent records a deployment request and, later, the outcome of the
// task that carried it out. ClientIP is empty for outcomes.
type LaunchEvent struct {
	User         string
	ClientIP     string
	DeploymentID uint
	Deployment   string
	Application  string
	Version      string
	Cloud        string
	TaskID       string
	Phase        string
	ErrorMessage string
}

func (e LaunchEvent) MessageID() string {
	return "launch"
}

func (e LaunchEvent) Message() string {
	app := e.Application
	if e.Version != "" {
		app = fmt.Sprintf("%s %s", e.Application, e.Version)
	}
	switch e.Phase {
	case LaunchRequested:
		return fmt.Sprintf("%s requested launch of %s on %s as %q", e.User, app, e.Cloud, e.Deployment)
	case LaunchSucceeded:
		return fmt.Sprintf("launch of %s on %s as %q succeeded", app, e.Cloud, e.Deployment)
	default:
		return withError(fmt.Sprintf("launch of %s on %s as %q failed", app, e.Cloud, e.Deployment), e.ErrorMessage)
	}
}

func (e LaunchEvent) Severity() Severity {
	switch e.Phase {
	case LaunchFailed:
		return SeverityError
	case LaunchRequested:
		return SeverityNotice
	}
	return SeverityInfo
}

func (e LaunchEvent) Facility() int {
	return FacilityUser
}

func (e LaunchEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDLaunch: {
			"deployment":  strconv.FormatUint(uint64(e.DeploymentID), 10),
			"application": e.Application,
			"cloud":       e.Cloud,
			"task":        e.TaskID,
		},
		SDIDAction: {
			"operation": "launch",
			"phase":     e.Phase,
		},
	}
	if e.Version != "" {
		sd[SDIDLaunch]["version"] = e.Version
	}
	if e.User != "" {
		sd[SDIDAuth] = map[string]string{"user": e.User}
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	return sd
}
