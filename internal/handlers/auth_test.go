package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/handlers"
	"github.com/vruksh/plantshop/internal/models"
	"github.com/vruksh/plantshop/internal/testutil"
)

func newAuthEnv(t *testing.T) (*gorm.DB, *handlers.AuthHandler) {
	db := testutil.NewTestDB(t)
	h := &handlers.AuthHandler{
		DB:            db,
		JWTSecret:     testutil.JWTSecret,
		RefreshSecret: testutil.RefreshSecret,
		Producer:      &testutil.FakePublisher{},
	}
	return db, h
}

func TestRegisterAndLogin(t *testing.T) {
	db, h := newAuthEnv(t)
	e := testutil.NewEcho()

	creds := map[string]string{"username": "grower", "password": "secret123"}

	rec, c := testutil.DoJSON(t, e, http.MethodPost, "/api/register", creds)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, db.Where("username = ?", "grower").First(&user).Error)
	require.Equal(t, "customer", user.Role)
	require.NotEqual(t, "secret123", user.PasswordHash)

	rec2, c2 := testutil.DoJSON(t, e, http.MethodPost, "/api/login", creds)
	require.NoError(t, h.Login(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IsAdmin      bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.False(t, resp.IsAdmin)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	_, h := newAuthEnv(t)
	e := testutil.NewEcho()

	creds := map[string]string{"username": "grower", "password": "secret123"}
	_, c := testutil.DoJSON(t, e, http.MethodPost, "/api/register", creds)
	require.NoError(t, h.Register(c))

	_, c2 := testutil.DoJSON(t, e, http.MethodPost, "/api/register", creds)
	err := h.Register(c2)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, err.(*echo.HTTPError).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	_, h := newAuthEnv(t)
	e := testutil.NewEcho()

	_, c := testutil.DoJSON(t, e, http.MethodPost, "/api/register",
		map[string]string{"username": "grower", "password": "secret123"})
	require.NoError(t, h.Register(c))

	_, c2 := testutil.DoJSON(t, e, http.MethodPost, "/api/login",
		map[string]string{"username": "grower", "password": "wrong-pass"})
	err := h.Login(c2)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, err.(*echo.HTTPError).Code)
}

func TestLogOutRevokesRefreshToken(t *testing.T) {
	db, h := newAuthEnv(t)
	e := testutil.NewEcho()

	creds := map[string]string{"username": "grower", "password": "secret123"}
	_, c := testutil.DoJSON(t, e, http.MethodPost, "/api/register", creds)
	require.NoError(t, h.Register(c))

	rec, c2 := testutil.DoJSON(t, e, http.MethodPost, "/api/login", creds)
	require.NoError(t, h.Login(c2))

	var resp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RefreshToken)

	rec3, c3 := testutil.DoJSON(t, e, http.MethodPost, "/api/logout", nil,
		&http.Cookie{Name: "refreshToken", Value: resp.RefreshToken, Path: "/"})
	require.NoError(t, h.LogOut(c3))
	require.Equal(t, http.StatusOK, rec3.Code)

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}
