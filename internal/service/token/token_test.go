package token_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/vruksh/plantshop/internal/models"
	"github.com/vruksh/plantshop/internal/service/token"
	"github.com/vruksh/plantshop/internal/testutil"
)

func TestRotateTokenRevokesOldRefresh(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := &token.TokenService{DB: db, JWTSecret: testutil.JWTSecret, RefreshSecret: testutil.RefreshSecret}

	refresh, err := token.SignRefreshToken(7, "customer", testutil.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, token.SaveRefreshToken(db, refresh, 7, "customer"))

	access, newRefresh, err := svc.RotateToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, newRefresh)
	require.NotEqual(t, refresh, newRefresh)

	// the old token is revoked and cannot rotate again
	var old models.RefreshToken
	require.NoError(t, db.Where("token = ?", refresh).First(&old).Error)
	require.True(t, old.Revoked)

	_, _, err = svc.RotateToken(refresh)
	require.Error(t, err)
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	db := testutil.NewTestDB(t)

	access, err := token.SignAccessToken(7, "customer", testutil.RefreshSecret)
	require.NoError(t, err)

	_, err = token.ValidateRefresh(access, testutil.RefreshSecret, db)
	require.Error(t, err)
}

func TestValidateRefreshRejectsUnknownToken(t *testing.T) {
	db := testutil.NewTestDB(t)

	refresh, err := token.SignRefreshToken(7, "customer", testutil.RefreshSecret)
	require.NoError(t, err)

	// signed but never persisted
	_, err = token.ValidateRefresh(refresh, testutil.RefreshSecret, db)
	require.Error(t, err)
}

func middlewareContext(t *testing.T, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := testutil.NewEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAutoRefreshMiddlewarePassesValidToken(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := &token.TokenService{DB: db, JWTSecret: testutil.JWTSecret, RefreshSecret: testutil.RefreshSecret}

	c, _ := middlewareContext(t, testutil.AuthCookie(t, 7, "customer"))

	called := false
	handler := svc.AutoRefreshMiddleware(func(c echo.Context) error {
		called = true
		require.Equal(t, uint(7), c.Get("userID"))
		require.Equal(t, "customer", c.Get("role"))
		return nil
	})
	require.NoError(t, handler(c))
	require.True(t, called)
}

func TestAutoRefreshMiddlewareRotatesExpiredAccess(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := &token.TokenService{DB: db, JWTSecret: testutil.JWTSecret, RefreshSecret: testutil.RefreshSecret}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(7),
		"role": "customer",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	expiredAccess, err := expired.SignedString(testutil.JWTSecret)
	require.NoError(t, err)

	refresh, err := token.SignRefreshToken(7, "customer", testutil.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, token.SaveRefreshToken(db, refresh, 7, "customer"))

	c, rec := middlewareContext(t,
		&http.Cookie{Name: "accessToken", Value: expiredAccess, Path: "/"},
		&http.Cookie{Name: "refreshToken", Value: refresh, Path: "/"},
	)

	called := false
	handler := svc.AutoRefreshMiddleware(func(c echo.Context) error {
		called = true
		require.Equal(t, uint(7), c.Get("userID"))
		return nil
	})
	require.NoError(t, handler(c))
	require.True(t, called)
	require.NotEmpty(t, rec.Header()["Set-Cookie"])
}

func TestAutoRefreshMiddlewareMissingTokens(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := &token.TokenService{DB: db, JWTSecret: testutil.JWTSecret, RefreshSecret: testutil.RefreshSecret}

	c, _ := middlewareContext(t)
	err := svc.AutoRefreshMiddleware(func(c echo.Context) error { return nil })(c)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, err.(*echo.HTTPError).Code)
}

func TestAdminMiddlewareRejectsCustomer(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := &token.TokenService{DB: db, JWTSecret: testutil.JWTSecret, RefreshSecret: testutil.RefreshSecret}

	c, _ := middlewareContext(t, testutil.AuthCookie(t, 7, "customer"))
	err := svc.AutoRefreshMiddlewareAdmin(func(c echo.Context) error { return nil })(c)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, err.(*echo.HTTPError).Code)

	c2, _ := middlewareContext(t, testutil.AuthCookie(t, 7, "admin"))
	require.NoError(t, svc.AutoRefreshMiddlewareAdmin(func(c echo.Context) error { return nil })(c2))
}
