package audit

import "fmt"

// LoginEvent represents a password login attempt
type LoginEvent struct {
	User         string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e LoginEvent) MessageID() string {
	return "login"
}

func (e LoginEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully logged in", e.User)
	}
	return withError(fmt.Sprintf("%s failed to log in", e.User), e.ErrorMessage)
}

func (e LoginEvent) Severity() Severity {
	return severity(e.Success)
}

func (e LoginEvent) Facility() int {
	return FacilityAuthPriv
}

func (e LoginEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.User,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "login",
			"result":    result(e.Success),
		},
	}
}

// LogoutEvent represents a token revocation
type LogoutEvent struct {
	User     string
	ClientIP string
	TokenID  string
}

func (e LogoutEvent) MessageID() string {
	return "logout"
}

func (e LogoutEvent) Message() string {
	return fmt.Sprintf("%s logged out", e.User)
}

func (e LogoutEvent) Severity() Severity {
	return SeverityInfo
}

func (e LogoutEvent) Facility() int {
	return FacilityAuthPriv
}

func (e LogoutEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user":  e.User,
			"token": e.TokenID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "logout",
			"result":    "success",
		},
	}
}

// RegistrationEvent represents a new account sign-up
type RegistrationEvent struct {
	User         string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e RegistrationEvent) MessageID() string {
	return "register"
}

func (e RegistrationEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s registered", e.User)
	}
	return withError(fmt.Sprintf("registration of %s failed", e.User), e.ErrorMessage)
}

func (e RegistrationEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e RegistrationEvent) Facility() int {
	return FacilityAuth
}

func (e RegistrationEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"user": e.User,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "register",
			"result":    result(e.Success),
		},
	}
}

// PasswordEvent is a password change by the account owner.
type PasswordEvent struct {
	User         string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e PasswordEvent) MessageID() string { return "password" }

func (e PasswordEvent) Message() string {
	if e.Success {
		return e.User + " changed their password"
	}
	return withError(e.User+" failed to change their password", e.ErrorMessage)
}

func (e PasswordEvent) Severity() Severity { return severity(e.Success) }

func (e PasswordEvent) Facility() int { return FacilityAuthPriv }

func (e PasswordEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth:   {"user": e.User},
		SDIDClient: {"ip": e.ClientIP},
		SDIDAction: {"operation": "change-password", "result": result(e.Success)},
	}
}
