package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corpvox/internal/config"
	"corpvox/internal/models"
	"corpvox/internal/repositories/interfaces"
	"corpvox/internal/utils"
	"corpvox/pkg/cache"
	"corpvox/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, request *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, actor Actor, sessionID string) error
	CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	SessionValid(ctx context.Context, sessionID string) (bool, error)
}

type authService struct {
	userRepo     interfaces.UserRepository
	auditLogRepo interfaces.AuditLogRepository
	cache        *cache.RedisCache
	security     *config.SecurityConfig
	logger       *logger.Logger
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	auditLogRepo interfaces.AuditLogRepository,
	redisCache *cache.RedisCache,
	security *config.SecurityConfig,
	log *logger.Logger,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		auditLogRepo: auditLogRepo,
		cache:        redisCache,
		security:     security,
		logger:       log,
	}
}

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Password  string `json:"password" validate:"required,min=8"`
	IPAddress string `json:"-"`
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// session is the server-side record behind a JWT. Deleting it from the
// store invalidates the token before its expiry.
type session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	UserType  string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	IPAddress string    `json:"ip_address"`
}

// Register creates an expert account. Admin accounts are provisioned
// out of band, never through the public endpoint.
func (s *authService) Register(ctx context.Context, request *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	email := utils.NormalizeEmail(request.Email)

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailAlreadyUsed
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Email:     email,
		Phone:     request.Phone,
		Company:   request.Company,
		Password:  string(hash),
		UserType:  models.UserTypeExpert,
		Status:    models.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithUserID(user.ID).Info("Expert account registered")

	return s.issueSession(ctx, user, request.IPAddress)
}

func (s *authService) Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, request.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)); err != nil {
		s.logger.WithField("email", utils.MaskEmail(request.Email)).Warn("Login failed: bad password")
		return nil, ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return nil, ErrAccountDisabled
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithUserID(user.ID).Warn("Failed to record last login")
	}

	response, err := s.issueSession(ctx, user, request.IPAddress)
	if err != nil {
		return nil, err
	}

	actor := Actor{ID: user.ID, Type: user.UserType, IPAddress: request.IPAddress}
	writeAudit(ctx, s.auditLogRepo, s.logger, actor, models.AuditActionLogin, utils.ResourceUser, user.ID.Hex(), nil, nil)

	return response, nil
}

func (s *authService) Logout(ctx context.Context, actor Actor, sessionID string) error {
	if err := s.cache.Delete(ctx, utils.CacheSessionPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to drop session: %w", err)
	}

	writeAudit(ctx, s.auditLogRepo, s.logger, actor, models.AuditActionLogout, utils.ResourceUser, actor.ID.Hex(), nil, nil)

	return nil
}

func (s *authService) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *authService) SessionValid(ctx context.Context, sessionID string) (bool, error) {
	return s.cache.Exists(ctx, utils.CacheSessionPrefix+sessionID)
}

func (s *authService) issueSession(ctx context.Context, user *models.User, ipAddress string) (*AuthResponse, error) {
	sessionID := uuid.NewString()
	now := time.Now()
	expiresAt := now.Add(s.security.JWTAccessTokenTTL)

	sess := &session{
		SessionID: sessionID,
		UserID:    user.ID.Hex(),
		UserType:  string(user.UserType),
		CreatedAt: now,
		IPAddress: ipAddress,
	}

	if err := s.cache.Set(ctx, utils.CacheSessionPrefix+sessionID, sess, s.security.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	claims := &utils.JWTClaims{
		UserID:    user.ID,
		UserType:  string(user.UserType),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := utils.GenerateAccessToken(claims, s.security.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &AuthResponse{
		User:        user,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}
