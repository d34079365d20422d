// Package testutil holds the shared harness for handler tests: an in-memory
// sqlite database migrated with the real schema, an echo instance with the
// production validator, and a recording event publisher.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/config"
	"github.com/vruksh/plantshop/internal/handlers"
	"github.com/vruksh/plantshop/internal/service/token"
)

var (
	JWTSecret     = []byte("test-jwt-secret")
	RefreshSecret = []byte("test-refresh-secret")
)

func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func NewEcho() *echo.Echo {
	e := echo.New()
	e.Validator = handlers.NewValidator()
	return e
}

// FakePublisher records events instead of talking to kafka.
type FakePublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

type PublishedEvent struct {
	Topic string
	Key   string
	Event interface{}
}

func (f *FakePublisher) PublishEvent(ctx context.Context, topic, key string, event interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, PublishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (f *FakePublisher) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Events)
}

// AuthCookie signs a real access token for the given identity.
func AuthCookie(t *testing.T, userID uint, role string) *http.Cookie {
	t.Helper()
	tok, err := token.SignAccessToken(userID, role, JWTSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: tok, Path: "/"}
}

// DoJSON builds an echo context around a JSON request.
func DoJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c
}
