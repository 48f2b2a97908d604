package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"almacenpos/internal/config"
	"almacenpos/internal/middleware"
	"almacenpos/internal/model"
	"almacenpos/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-test-secret"

func init() { gin.SetMode(gin.TestMode) }

// newEngine builds the router with no database or redis; only routes that are
// rejected before reaching a repository can be exercised here.
func newEngine(t *testing.T, env string) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return router.New(ctx, &config.Config{Env: env, JWTSecret: secret, ServiceName: "almacenpos-test"}, nil, nil)
}

func token(t *testing.T, rol, tipo string) string {
	t.Helper()
	claims := middleware.JWTClaims{
		UserID: "3a1f2d8e-0c51-4f5b-9a61-2b7c9d0e4f10",
		Email:  rol + "@almacen.test",
		Nombre: rol,
		Rol:    rol,
		Tipo:   tipo,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func get(r http.Handler, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_SinDependencias(t *testing.T) {
	w := get(newEngine(t, "test"), "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"db":"error"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRutasProtegidas_SinToken(t *testing.T) {
	r := newEngine(t, "test")
	for _, path := range []string{"/v1/stock", "/v1/cajas/activa", "/v1/reportes/resumen", "/v1/usuarios"} {
		assert.Equal(t, http.StatusUnauthorized, get(r, path, "").Code, path)
	}
}

func TestRutasProtegidas_RefreshTokenRechazado(t *testing.T) {
	w := get(newEngine(t, "test"), "/v1/stock", token(t, model.RolAdministrador, "refresh"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoles(t *testing.T) {
	r := newEngine(t, "test")
	cajero := token(t, model.RolCajero, "access")
	supervisor := token(t, model.RolSupervisor, "access")

	cases := []struct {
		path string
		tok  string
	}{
		{"/v1/reportes/resumen", cajero},
		{"/v1/reposiciones", cajero},
		{"/v1/salidas", cajero},
		{"/v1/auditoria", cajero},
		{"/v1/cajas", cajero},
		{"/v1/usuarios", cajero},
		{"/v1/usuarios", supervisor},
	}
	for _, tc := range cases {
		assert.Equal(t, http.StatusForbidden, get(r, tc.path, tc.tok).Code, tc.path)
	}

	w := get(r, "/v1/eventos/desconocida", cajero)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSwagger_DeshabilitadoEnProduccion(t *testing.T) {
	w := get(newEngine(t, "production"), "/swagger/index.html", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
