package service

import (
	"context"
	"testing"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/config"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func buildAuthSvc(t *testing.T) (AuthService, *stubUsuarioRepo, *model.Usuario) {
	t.Helper()
	repo := newStubUsuarioRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{
		ID:           uuid.New(),
		Email:        "ana@almacen.com.py",
		Nombre:       "Ana",
		PasswordHash: string(hash),
		Rol:          model.RolCajero,
		Activo:       true,
	}
	repo.users[u.ID] = u
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 8, JWTRefreshHours: 24}
	return NewAuthService(repo, cfg, cache.New(), &stubAuditor{}), repo, u
}

func tipoDe(t *testing.T, token string) string {
	t.Helper()
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	tipo, _ := claims["tipo"].(string)
	return tipo
}

func TestLogin_OK(t *testing.T) {
	svc, _, u := buildAuthSvc(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ANA@almacen.com.py", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, u.ID.String(), resp.User.ID)
	assert.Equal(t, tokenAcceso, tipoDe(t, resp.AccessToken))
	assert.Equal(t, tokenRefresh, tipoDe(t, resp.RefreshToken))
}

func TestLogin_PasswordIncorrecta(t *testing.T) {
	svc, _, _ := buildAuthSvc(t)
	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@almacen.com.py", Password: "otra-cosa"})
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	svc, _, u := buildAuthSvc(t)
	u.Activo = false
	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: u.Email, Password: "secreto123"})
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
}

func TestRefresh_OK(t *testing.T) {
	svc, _, _ := buildAuthSvc(t)
	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@almacen.com.py", Password: "secreto123"})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefresh_RechazaAccessToken(t *testing.T) {
	svc, _, _ := buildAuthSvc(t)
	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@almacen.com.py", Password: "secreto123"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.AccessToken)
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
}

func TestRefresh_TokenBasura(t *testing.T) {
	svc, _, _ := buildAuthSvc(t)
	_, err := svc.Refresh(context.Background(), "no.es.jwt")
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
}

func TestRegistrar_EmailDuplicado(t *testing.T) {
	svc, _, _ := buildAuthSvc(t)
	_, err := svc.Registrar(context.Background(), admin, dto.CrearUsuarioRequest{
		Nombre: "Otra Ana", Email: "Ana@Almacen.com.py", Password: "password1", Rol: model.RolCajero,
	})
	assert.ErrorIs(t, err, apierror.ErrConflict)
}

func TestRegistrar_NormalizaEmail(t *testing.T) {
	svc, repo, _ := buildAuthSvc(t)
	resp, err := svc.Registrar(context.Background(), admin, dto.CrearUsuarioRequest{
		Nombre: "Carlos", Email: " Carlos@Almacen.com.py ", Password: "password1", Rol: model.RolSupervisor,
	})
	require.NoError(t, err)
	assert.Equal(t, "carlos@almacen.com.py", resp.Email)
	assert.Len(t, repo.users, 2)
}

func TestDesactivar_PropioUsuario(t *testing.T) {
	svc, _, u := buildAuthSvc(t)
	err := svc.Desactivar(context.Background(), Actor{ID: u.ID, Nombre: u.Nombre}, u.ID)
	assert.ErrorIs(t, err, apierror.ErrConflict)
}

func TestDesactivar_OtroUsuario(t *testing.T) {
	svc, repo, u := buildAuthSvc(t)
	require.NoError(t, svc.Desactivar(context.Background(), admin, u.ID))
	assert.False(t, repo.users[u.ID].Activo)
}
