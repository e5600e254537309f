// Package audit provides audit logging for CloudLaunch operations.
//
// Security-relevant operations are written as RFC5424 syslog lines to
// stdout. Once a Store is attached with UseStore they are also persisted to
// the audit_messages table of the application database.
//
// # Event Types
//
//   - LoginEvent, LogoutEvent and RegistrationEvent
//   - PasswordEvent
//   - CredentialsEvent for stored cloud credentials
//   - LaunchEvent for deployment requests and their outcome
//
// # Usage
//
//	audit.Log(audit.LoginEvent{User: "alice", ClientIP: ip, Success: true})
//
// Logging can be switched off with CLOUDLAUNCH_AUDIT_ENABLED=false.
package audit
