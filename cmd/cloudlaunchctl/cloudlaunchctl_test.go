package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/db"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	gormstore "github.com/cloudlaunch/cloudlaunch-go/pkg/server/store/gorm"
)

func TestReadPassword(t *testing.T) {
	pw, err := readPassword(strings.NewReader("s3cret-pass\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret-pass", pw)

	pw, err = readPassword(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)
}

func TestCreateUser(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()
	gormDB, err := db.Open(postgres.New(postgres.Config{Conn: mockDB, PreferSimpleProtocol: true}), nil)
	require.NoError(t, err)
	users := gormstore.NewUsersStore(gormDB)

	t.Run("weak password", func(t *testing.T) {
		_, err := createUser(users, "admin", "", "1234", true)
		var v *model.ValidationError
		require.ErrorAs(t, err, &v)
	})

	t.Run("staff user with profile", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectExec(`INSERT INTO "user_profiles"`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		u, err := createUser(users, "admin", "admin@example.org", "correct horse", true)
		require.NoError(t, err)
		assert.Equal(t, uint(7), u.ID)
		assert.True(t, u.IsStaff)
		assert.True(t, auth.CheckPassword(u.PasswordHash, "correct horse"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestShowConfiguration(t *testing.T) {
	t.Setenv("CLOUDLAUNCH_CONFIG_PATH", t.TempDir())
	t.Setenv("CLOUDLAUNCH_PAGE_SIZE", "25")

	var out bytes.Buffer
	require.NoError(t, showConfiguration(&out, "json"))
	var shown struct {
		Attributes []config.Attribute `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))

	found := false
	for _, a := range shown.Attributes {
		if a.Name == "page_size" {
			found = true
			assert.Equal(t, "25", a.Value)
			assert.Equal(t, "environment", a.Source)
		}
	}
	assert.True(t, found, "page_size listed")

	out.Reset()
	require.NoError(t, showConfiguration(&out, "text"))
	assert.Contains(t, out.String(), "page_size")

	assert.Error(t, showConfiguration(&out, "xml"))
}

func TestWaitForServer(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, waitForServer(srv.URL, 5, time.Millisecond))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	assert.Error(t, waitForServer(srv.URL+"/missing", 0, time.Millisecond))
}

func TestOpenTaskBackend_Memory(t *testing.T) {
	backend, err := openTaskBackend(context.Background(), &config.Config{}, "")
	require.NoError(t, err)
	assert.False(t, backend.Shared)
	assert.NoError(t, backend.Broker.Ping(context.Background()))
	assert.NoError(t, backend.Close())
}

func TestCloudRegistry(t *testing.T) {
	assert.Equal(t, []string{"aws", "openstack"}, cloudRegistry(&config.Config{}).Kinds())
	assert.Equal(t, []string{"aws", "dummy", "openstack"}, cloudRegistry(&config.Config{EnableDummyCloud: true}).Kinds())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CLOUDLAUNCH_CONFIG_PATH", t.TempDir())

	t.Run("list overrides reach the server config", func(t *testing.T) {
		t.Setenv(config.CORSAllowedOriginsEnv, "https://launch.example.org")
		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://launch.example.org"}, cfg.CORSAllowedOrigins)
	})

	t.Run("bad environment is an error, not defaults", func(t *testing.T) {
		t.Setenv("CLOUDLAUNCH_PAGE_SIZE", "lots")
		_, err := loadConfig()
		assert.Error(t, err)
	})
}
