package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.now = func() time.Time { return time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC) }

	logger.Log(LoginEvent{
		User:     "alice",
		ClientIP: "192.168.1.1",
		Success:  true,
	})

	output := buf.String()

	// <PRI> is facility*8 + severity
	if !strings.HasPrefix(output, "<86>1 2024-01-15T09:30:00.000Z ") {
		t.Errorf("Expected PRI <86>, version 1 and timestamp, got %q", output)
	}
	if !strings.Contains(output, " cloudlaunch ") {
		t.Error("Expected app name 'cloudlaunch' in output")
	}
	if !strings.Contains(output, " login ") {
		t.Error("Expected message ID 'login' in output")
	}
	if !strings.Contains(output, `ip="192.168.1.1"`) {
		t.Error("Expected client IP in output")
	}
	if !strings.HasSuffix(output, "alice successfully logged in\n") {
		t.Error("Expected success message at end of line")
	}
}

func TestLoginEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     LoginEvent
		wantMsg   string
		wantSev   Severity
		wantMsgID string
	}{
		{
			name:      "successful login",
			event:     LoginEvent{User: "alice", ClientIP: "10.0.0.1", Success: true},
			wantMsg:   "successfully logged in",
			wantSev:   SeverityInfo,
			wantMsgID: "login",
		},
		{
			name: "failed login",
			event: LoginEvent{
				User:         "alice",
				ClientIP:     "10.0.0.1",
				ErrorMessage: "invalid credentials",
			},
			wantMsg:   "failed to log in: invalid credentials",
			wantSev:   SeverityWarning,
			wantMsgID: "login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.Facility() != FacilityAuthPriv {
				t.Errorf("Facility() = %v, want %v", tt.event.Facility(), FacilityAuthPriv)
			}
			if tt.event.MessageID() != tt.wantMsgID {
				t.Errorf("MessageID() = %v, want %v", tt.event.MessageID(), tt.wantMsgID)
			}
		})
	}
}

func TestLogoutEvent(t *testing.T) {
	event := LogoutEvent{User: "alice", ClientIP: "10.0.0.1", TokenID: "jti-1"}
	if event.Message() != "alice logged out" {
		t.Errorf("Message() = %q", event.Message())
	}
	if event.StructuredData()[SDIDAuth]["token"] != "jti-1" {
		t.Error("Expected token id in structured data")
	}
}

func TestRegistrationEvent(t *testing.T) {
	ok := RegistrationEvent{User: "bob", Success: true}
	if ok.Severity() != SeverityNotice {
		t.Errorf("Severity() = %v, want notice", ok.Severity())
	}
	failed := RegistrationEvent{User: "bob", ErrorMessage: "username taken"}
	if !strings.Contains(failed.Message(), "registration of bob failed: username taken") {
		t.Errorf("Message() = %q", failed.Message())
	}
	if failed.StructuredData()[SDIDAction]["result"] != "failure" {
		t.Error("Expected failure result")
	}
}

func TestPasswordEvent(t *testing.T) {
	event := PasswordEvent{User: "alice", ClientIP: "10.0.0.1", Success: true}
	if !strings.Contains(event.Message(), "alice changed their password") {
		t.Errorf("Message() = %q", event.Message())
	}
	if event.StructuredData()[SDIDAction]["operation"] != "change-password" {
		t.Error("Expected change-password operation")
	}
}

func TestCredentialsEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   CredentialsEvent
		wantMsg string
	}{
		{
			name:    "create",
			event:   CredentialsEvent{User: "alice", CredentialsID: 4, Cloud: "aws-east", Operation: "create", Success: true},
			wantMsg: "alice created credentials 4 for cloud aws-east",
		},
		{
			name:    "delete",
			event:   CredentialsEvent{User: "alice", CredentialsID: 4, Cloud: "aws-east", Operation: "delete", Success: true},
			wantMsg: "alice deleted credentials 4 for cloud aws-east",
		},
		{
			name:    "failed create",
			event:   CredentialsEvent{User: "alice", Cloud: "aws-east", Operation: "create", ErrorMessage: "conflict"},
			wantMsg: "alice tried to create credentials for cloud aws-east: conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestLaunchEvent(t *testing.T) {
	requested := LaunchEvent{
		User:         "alice",
		ClientIP:     "10.0.0.1",
		DeploymentID: 12,
		Deployment:   "my-galaxy",
		Application:  "galaxy",
		Version:      "19.01",
		Cloud:        "aws-east",
		TaskID:       "t-1",
		Phase:        LaunchRequested,
	}
	if got := requested.Message(); got != `alice requested launch of galaxy 19.01 on aws-east as "my-galaxy"` {
		t.Errorf("Message() = %q", got)
	}
	sd := requested.StructuredData()
	if sd[SDIDLaunch]["deployment"] != "12" || sd[SDIDLaunch]["task"] != "t-1" {
		t.Errorf("unexpected launch structured data: %v", sd[SDIDLaunch])
	}
	if sd[SDIDClient]["ip"] != "10.0.0.1" {
		t.Error("Expected client IP in structured data")
	}

	failed := requested
	failed.User, failed.ClientIP = "", ""
	failed.Phase = LaunchFailed
	failed.ErrorMessage = "quota exceeded"
	if failed.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want error", failed.Severity())
	}
	if !strings.HasSuffix(failed.Message(), "failed: quota exceeded") {
		t.Errorf("Message() = %q", failed.Message())
	}
	if _, ok := failed.StructuredData()[SDIDClient]; ok {
		t.Error("Expected no client section for a task outcome")
	}
}

func TestAuditToggle(t *testing.T) {
	original := IsEnabled()
	defer SetEnabled(original)

	SetEnabled(false)
	if IsEnabled() {
		t.Error("Expected audit to be disabled")
	}

	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected audit to be enabled")
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
		{`all"special\chars]`, `"all\"special\\chars\]"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeSDValue(tt.input)
			if got != tt.want {
				t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatStructuredDataOrder(t *testing.T) {
	got := formatStructuredData(map[string]map[string]string{
		SDIDClient: {"ip": "10.0.0.1"},
		SDIDAction: {"result": "success", "operation": "login"},
	})
	want := `[action@32473 operation="login" result="success"][client@32473 ip="10.0.0.1"]`
	if got != want {
		t.Errorf("formatStructuredData() = %q, want %q", got, want)
	}
}
