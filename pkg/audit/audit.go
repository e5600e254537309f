package audit

import (
	"context"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
)

// Structured data IDs (RFC5424), scoped under the documentation Private
// Enterprise Number from RFC 5612.
const (
	PEN         = 32473
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
	SDIDLaunch  = "launch@32473"
)

// Syslog facilities used by the events.
const (
	FacilityUser     = 1
	FacilityAuth     = 4
	FacilityAuthPriv = 10
)

// AppName is the RFC5424 APP-NAME of every audit line.
const AppName = "cloudlaunch"

// EnabledEnv switches audit logging off when set to false, 0 or no.
const EnabledEnv = "CLOUDLAUNCH_AUDIT_ENABLED"

// Severity is a syslog severity level.
type Severity int

const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

// Event is one auditable occurrence.
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Sink receives every event the logger writes. Store is the database sink.
type Sink interface {
	Save(ctx context.Context, e Event) error
}

var log = logging.New("audit")

// Logger writes events as RFC5424 lines and forwards them to its sinks.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	hostname string
	pid      int
	now      func() time.Time
	sinks    []Sink
}

// NewLogger returns a logger writing to out.
func NewLogger(out io.Writer) *Logger {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "-"
	}
	return &Logger{
		out:      out,
		hostname: hostname,
		pid:      os.Getpid(),
		now:      time.Now,
	}
}

func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// AddSink registers s to receive every subsequent event.
func (l *Logger) AddSink(s Sink) {
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

// Format renders e as a single line:
// <PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Format(e Event) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(strconv.Itoa(e.Facility()*8 + int(e.Severity())))
	b.WriteString(">1 ")
	b.WriteString(l.now().UTC().Format("2006-01-02T15:04:05.000Z"))
	for _, field := range []string{l.hostname, AppName, strconv.Itoa(l.pid), e.MessageID()} {
		b.WriteByte(' ')
		b.WriteString(field)
	}
	b.WriteByte(' ')
	if sd := formatStructuredData(e.StructuredData()); sd != "" {
		b.WriteString(sd)
	} else {
		b.WriteByte('-')
	}
	b.WriteByte(' ')
	b.WriteString(e.Message())
	b.WriteByte('\n')
	return b.String()
}

// Log writes e and hands it to the sinks. Sink failures are logged and
// never reach the caller.
func (l *Logger) Log(e Event) {
	line := l.Format(e)

	l.mu.Lock()
	out, sinks := l.out, l.sinks
	if out != nil {
		_, _ = io.WriteString(out, line)
	}
	l.mu.Unlock()

	for _, s := range sinks {
		if err := s.Save(context.Background(), e); err != nil {
			log.WithError(err).WithField("msgid", e.MessageID()).Warn("failed to persist audit event")
		}
	}
}

// formatStructuredData renders [sdid key="value" ...] groups. SD-IDs and
// parameter names are sorted so lines are stable.
func formatStructuredData(sd map[string]map[string]string) string {
	ids := make([]string, 0, len(sd))
	for id := range sd {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		params := sd[id]
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('[')
		b.WriteString(id)
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(escapeSDValue(params[k]))
		}
		b.WriteByte(']')
	}
	return b.String()
}

// escapeSDValue quotes a PARAM-VALUE, escaping '"', '\' and ']'
// (RFC5424 section 6.3.3).
func escapeSDValue(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)
	return `"` + r.Replace(value) + `"`
}

var (
	std     = NewLogger(os.Stdout)
	enabled atomic.Bool
)

func init() {
	v := strings.ToLower(os.Getenv(EnabledEnv))
	enabled.Store(v != "false" && v != "0" && v != "no")
}

func IsEnabled() bool { return enabled.Load() }

// SetEnabled switches audit logging on or off for the whole process.
func SetEnabled(on bool) { enabled.Store(on) }

// SetOutput redirects the audit lines of the process.
func SetOutput(w io.Writer) { std.SetWriter(w) }

// UseStore persists every subsequent event through s.
func UseStore(s *Store) { std.AddSink(s) }

// Log writes e to the process audit logger when auditing is enabled.
func Log(e Event) {
	if !IsEnabled() {
		return
	}
	std.Log(e)
}
