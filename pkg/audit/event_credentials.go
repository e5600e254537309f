package audit

import (
	"fmt"
	"strconv"
)

// CredentialsEvent represents a change to a user's stored cloud credentials.
// Secrets are never part of the event.
type CredentialsEvent struct {
	User          string
	ClientIP      string
	CredentialsID uint
	Cloud         string
	Operation     string // "create", "update", "delete"
	Success       bool
	ErrorMessage  string
}

func (e CredentialsEvent) MessageID() string {
	return "credentials"
}

func (e CredentialsEvent) Message() string {
	target := fmt.Sprintf("credentials %d for cloud %s", e.CredentialsID, e.Cloud)
	if e.CredentialsID == 0 {
		target = "credentials for cloud " + e.Cloud
	}
	if e.Success {
		return fmt.Sprintf("%s %sd %s", e.User, e.Operation, target)
	}
	return withError(fmt.Sprintf("%s tried to %s %s", e.User, e.Operation, target), e.ErrorMessage)
}

func (e CredentialsEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e CredentialsEvent) Facility() int {
	return FacilityAuthPriv
}

func (e CredentialsEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.User,
		},
		SDIDSubject: {
			"cloud": e.Cloud,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation + "-credentials",
			"result":    result(e.Success),
		},
	}
	if e.CredentialsID != 0 {
		sd[SDIDSubject]["credentials"] = strconv.FormatUint(uint64(e.CredentialsID), 10)
	}
	return sd
}
