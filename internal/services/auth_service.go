package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/config"
	"github.com/synesthesie/catalog/internal/models"
	"github.com/synesthesie/catalog/pkg/crypto"
	jwtpkg "github.com/synesthesie/catalog/pkg/jwt"
	"github.com/synesthesie/catalog/pkg/validation"
	"gorm.io/gorm"
)

type AuthService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

func NewAuthService(db *gorm.DB, redis *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
		cfg:   cfg,
	}
}

type RegisterInput struct {
	Name     string `json:"name" form:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Register creates a regular user account. No token is issued.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = validation.SanitizeString(in.Name)
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, UpstreamError("failed to look up user", err)
	}
	if count > 0 {
		return nil, AlreadyExistsError("email already registered")
	}

	hashedPassword, err := crypto.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, UpstreamError("failed to hash password", err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hashedPassword,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, UpstreamError("failed to create user", err)
	}
	user.LikedSongs, user.LikedAlbums = []uuid.UUID{}, []uuid.UUID{}
	user.FollowedArtists, user.FollowedPlaylists = []uuid.UUID{}, []uuid.UUID{}

	log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// Login verifies the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *models.User, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return "", nil, ValidationError("%s", err.Error())
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, UnauthorizedError("invalid email or password")
		}
		return "", nil, UpstreamError("failed to look up user", err)
	}

	if !crypto.CheckPassword(in.Password, user.Password) {
		return "", nil, UnauthorizedError("invalid email or password")
	}

	token, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", nil, UpstreamError("failed to issue token", err)
	}

	return token, &user, nil
}

// ValidateAccessToken checks the signature, type and revocation state of a
// bearer token.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, UnauthorizedError("invalid or expired token")
	}

	if claims.TokenType != jwtpkg.AccessToken {
		return nil, UnauthorizedError("invalid token type")
	}

	// If redis is down we let the request through.
	if s.redis != nil && claims.ID != "" {
		exists, err := s.redis.Exists(ctx, blacklistKey(claims.ID)).Result()
		if err != nil {
			log.Warn().Err(err).Msg("could not check token blacklist")
		} else if exists > 0 {
			return nil, UnauthorizedError("token has been revoked")
		}
	}

	return claims, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *jwtpkg.Claims) error {
	if claims == nil || claims.ID == "" {
		return UnauthorizedError("invalid token")
	}
	if s.redis == nil {
		return UpstreamError("token revocation is not available", nil)
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistKey(claims.ID), claims.UserID, ttl).Err(); err != nil {
		return UpstreamError("failed to revoke token", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, dbError(err, "user")
	}
	return &user, nil
}

// CreateDefaultAdmin creates the configured admin account if no user with
// that email exists yet.
func (s *AuthService) CreateDefaultAdmin(ctx context.Context) error {
	email := validation.NormalizeEmail(s.cfg.AdminEmail)
	if email == "" || s.cfg.AdminPassword == "" {
		return ValidationError("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return UpstreamError("failed to look up admin", err)
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := crypto.HashPassword(s.cfg.AdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return UpstreamError("failed to hash password", err)
	}

	admin := &models.User{
		Name:     s.cfg.AdminName,
		Email:    email,
		Password: hashedPassword,
		IsAdmin:  true,
	}
	if err := db.Create(admin).Error; err != nil {
		return UpstreamError("failed to create admin", err)
	}

	log.Info().Str("email", email).Msg("default admin created")
	return nil
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:token:%s", jti)
}
