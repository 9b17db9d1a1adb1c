package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/batsuburgeru/we-support-wms-backend/internal/config"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// permissionCacheTTL bounds how stale a cached capability set can get.
const permissionCacheTTL = 5 * time.Minute

// AuthService handles login, registration and the role-to-capability
// lookup behind the authorization gate.
type AuthService struct {
	userRepo *repository.UserRepository
	rdb      *redis.Client
	cfg      *config.Config
	logger   *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		rdb:      rdb,
		cfg:      cfg,
		logger:   logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      entity.User `json:"user"`
}

// Login verifies the password and mints a bearer token carrying identity
// and role. A wrong password and an unknown email answer identically.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrPermission)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrPermission)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.JWT.TokenExpire.Seconds()),
		User:      *user,
	}, nil
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// Register creates a user account. Reachable only through the
// create_users capability, so there is no self-signup path.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*entity.User, error) {
	if !entity.ValidRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrValidation)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// ListUsers serves the user directory.
func (s *AuthService) ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, int64, error) {
	return s.userRepo.FindAll(ctx, page, pageSize)
}

func (s *AuthService) generateToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
		"iss":   s.cfg.JWT.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWT.TokenExpire).Unix(),
		"jti":   uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

// HasPermission reports whether the role carries the capability. The
// answer depends on (role, capability) alone; results are cached in redis
// for a few minutes per role.
func (s *AuthService) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	perms, err := s.rolePermissions(ctx, role)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == permission || p == "*" {
			return true, nil
		}
	}
	return false, nil
}

func (s *AuthService) rolePermissions(ctx context.Context, role string) ([]string, error) {
	cacheKey := "perm:role:" + role

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var perms []string
			if err := json.Unmarshal([]byte(cached), &perms); err == nil {
				return perms, nil
			}
		}
	}

	rp, err := s.userRepo.FindRolePermissions(ctx, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown role carries no capabilities.
			return nil, nil
		}
		return nil, err
	}

	perms, err := rp.PermissionList()
	if err != nil {
		return nil, fmt.Errorf("malformed permissions for role %s: %w", role, err)
	}

	if s.rdb != nil {
		if encoded, err := json.Marshal(perms); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, encoded, permissionCacheTTL).Err(); err != nil {
				s.logger.Debug("failed to cache role permissions", zap.String("role", role), zap.Error(err))
			}
		}
	}

	return perms, nil
}
