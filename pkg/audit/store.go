package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"time"
)

const insertMessage = `INSERT INTO audit_messages
	(facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Message is the audit_messages row of an event.
type Message struct {
	Facility  int
	Severity  int
	Timestamp time.Time
	Hostname  string
	Appname   string
	Procid    string
	Msgid     string
	Sdata     json.RawMessage
	Message   string
}

// NewMessage builds the row for e at time at.
func NewMessage(e Event, at time.Time) (Message, error) {
	sdata, err := json.Marshal(e.StructuredData())
	if err != nil {
		return Message{}, err
	}
	hostname, _ := os.Hostname()
	return Message{
		Facility:  e.Facility(),
		Severity:  int(e.Severity()),
		Timestamp: at.UTC(),
		Hostname:  hostname,
		Appname:   AppName,
		Procid:    strconv.Itoa(os.Getpid()),
		Msgid:     e.MessageID(),
		Sdata:     sdata,
		Message:   e.Message(),
	}, nil
}

// Store persists events to the audit_messages table of the application
// database. The caller owns db.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts e. A store without a database drops events.
func (s *Store) Save(ctx context.Context, e Event) error {
	if s == nil || s.db == nil {
		return nil
	}
	m, err := NewMessage(e, time.Now())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertMessage,
		m.Facility, m.Severity, m.Timestamp, m.Hostname, m.Appname,
		m.Procid, m.Msgid, []byte(m.Sdata), m.Message)
	return err
}
