package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/config"
	"almacenpos/internal/dto"
	"almacenpos/internal/model"
	"almacenpos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenAcceso  = "access"
	tokenRefresh = "refresh"
	bcryptCost   = 12
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Registrar(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	Listar(ctx context.Context) ([]dto.UsuarioResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	Desactivar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type authService struct {
	repo      repository.UsuarioRepository
	cfg       *config.Config
	cache     *cache.Cache
	auditoria Auditor
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config, c *cache.Cache, auditoria Auditor) AuthService {
	return &authService{repo: repo, cfg: cfg, cache: c, auditoria: auditoria}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, apierror.Unauthorized("credenciales invalidas")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized("credenciales invalidas")
	}

	resp, err := s.emitirTokens(user)
	if err != nil {
		return nil, err
	}
	s.registrar(ctx, Actor{ID: user.ID, Nombre: user.Nombre, Rol: user.Rol}, "login", map[string]any{"email": user.Email})
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apierror.Unauthorized("refresh token invalido o expirado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["tipo"] != tokenRefresh {
		return nil, apierror.Unauthorized("refresh token invalido")
	}
	userIDStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, apierror.Unauthorized("token mal formado")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, apierror.Unauthorized("usuario no encontrado o inactivo")
	}
	return s.emitirTokens(user)
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

func (s *authService) Registrar(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Nombre:       strings.TrimSpace(req.Nombre),
		PasswordHash: string(hash),
		Rol:          req.Rol,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("ya existe un usuario con email %s", user.Email)
		}
		return nil, err
	}
	s.cache.Clear(cache.Usuarios)
	s.registrar(ctx, actor, "crear", map[string]any{"usuario_id": user.ID.String(), "email": user.Email, "rol": user.Rol})
	return usuarioToResponse(user), nil
}

func (s *authService) Listar(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := cache.Lookup(s.cache, cache.Usuarios, func() ([]model.Usuario, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = *usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "usuario no encontrado")
	}
	cambios := map[string]any{"usuario_id": id.String()}
	if req.Nombre != "" {
		user.Nombre = strings.TrimSpace(req.Nombre)
		cambios["nombre"] = user.Nombre
	}
	if req.Rol != "" {
		cambios["rol"] = map[string]string{"antes": user.Rol, "despues": req.Rol}
		user.Rol = req.Rol
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
		cambios["password"] = true
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Clear(cache.Usuarios)
	s.registrar(ctx, actor, "actualizar", cambios)
	return usuarioToResponse(user), nil
}

func (s *authService) Desactivar(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id == actor.ID {
		return apierror.Conflict("no puede desactivar su propio usuario")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "usuario no encontrado")
	}
	if err := s.repo.Desactivar(ctx, id); err != nil {
		return err
	}
	s.cache.Clear(cache.Usuarios)
	s.registrar(ctx, actor, "desactivar", map[string]any{"usuario_id": id.String()})
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *authService) registrar(ctx context.Context, actor Actor, accion string, detalle map[string]any) {
	if s.auditoria != nil {
		s.auditoria.Registrar(ctx, Entrada{Accion: accion, Modulo: cache.Usuarios, Actor: actor, Detalle: detalle})
	}
}

func (s *authService) emitirTokens(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, tokenAcceso, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, tokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         *usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, tipo string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"nombre":  user.Nombre,
		"rol":     user.Rol,
		"tipo":    tipo,
		"exp":     now.Add(duration).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToResponse(u *model.Usuario) *dto.UsuarioResponse {
	return &dto.UsuarioResponse{
		ID:     u.ID.String(),
		Nombre: u.Nombre,
		Email:  u.Email,
		Rol:    u.Rol,
		Activo: u.Activo,
	}
}
