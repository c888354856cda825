package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tasktracker/backend/internal/config"
	"github.com/tasktracker/backend/internal/db"
	"github.com/tasktracker/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 6
	maxPasswordLength = 72
)

type UserRepo interface {
	CreateUser(ctx context.Context, fullname, username, email, passwordHash string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	SetRefreshTokenHash(ctx context.Context, userID int64, tokenHash *string) error
	SwapRefreshTokenHash(ctx context.Context, userID int64, oldHash, newHash string) error
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}

type CookieConfig struct {
	Path          string
	Domain        string
	Secure        bool
	SameSite      http.SameSite
	AccessMaxAge  int
	RefreshMaxAge int
}

type AuthService struct {
	repo       UserRepo
	tokens     *TokenIssuer
	bcryptCost int
	cookieCfg  CookieConfig
}

func NewAuthService(repo UserRepo, cfg config.AuthConfig) (*AuthService, error) {
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("%w: ACCESS_TOKEN_SECRET is required", ErrMisconfigured)
	}
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("%w: REFRESH_TOKEN_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil || accessTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid ACCESS_TOKEN_TTL", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.RefreshTokenTTL)
	if err != nil || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid REFRESH_TOKEN_TTL", ErrMisconfigured)
	}

	bcryptCost := bcrypt.DefaultCost
	if strings.TrimSpace(cfg.BcryptCost) != "" {
		bcryptCost, err = strconv.Atoi(strings.TrimSpace(cfg.BcryptCost))
		if err != nil || bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%w: invalid BCRYPT_COST", ErrMisconfigured)
		}
	}

	cookieSecure, err := parseBool(cfg.CookieSecure, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	return &AuthService{
		repo:       repo,
		tokens:     NewTokenIssuer([]byte(cfg.AccessTokenSecret), []byte(cfg.RefreshTokenSecret), accessTTL, refreshTTL),
		bcryptCost: bcryptCost,
		cookieCfg: CookieConfig{
			Path:          cookiePath,
			Domain:        cfg.CookieDomain,
			Secure:        cookieSecure,
			SameSite:      cookieSameSite,
			AccessMaxAge:  int(accessTTL.Seconds()),
			RefreshMaxAge: int(refreshTTL.Seconds()),
		},
	}, nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthUser, error) {
	fullname := strings.TrimSpace(req.Fullname)
	username := normalizeIdentifier(req.Username)
	email := normalizeIdentifier(req.Email)

	if fullname == "" {
		return nil, invalidInput("fullname is required")
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, invalidInput(fmt.Sprintf("username must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}
	if !strings.Contains(email, "@") {
		return nil, invalidInput("email is invalid")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errUserExists
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, fullname, username, email, hash)
	if err != nil {
		// 동시에 같은 username/email 로 가입한 경우
		if db.IsUniqueViolation(err) {
			return nil, errUserExists
		}
		return nil, err
	}
	return user.Identity(), nil
}

// Login verifies the credentials and rotates the user's refresh token slot.
// Tokens are returned only once the slot write succeeded.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthUser, *TokenPair, error) {
	email := normalizeIdentifier(req.Email)
	username := normalizeIdentifier(req.Username)

	if (email == "") == (username == "") {
		return nil, nil, invalidInput("exactly one of email or username is required")
	}
	if req.Password == "" {
		return nil, nil, invalidInput("password is required")
	}

	var (
		user *model.User
		err  error
	)
	if email != "" {
		user, err = s.repo.GetUserByEmail(ctx, email)
	} else {
		user, err = s.repo.GetUserByUsername(ctx, username)
	}
	if err != nil {
		if db.IsNoRows(err) {
			VerifyPassword(dummyHash, req.Password)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !VerifyPassword(user.PasswordHash, req.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user.Identity(), pair, nil
}

// Refresh exchanges the current refresh token for a new pair. A refresh token
// that is no longer the one stored on the user record is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthUser, *TokenPair, error) {
	userID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}

	if user.RefreshTokenHash == nil {
		return nil, nil, ErrInvalidToken
	}
	presented := hashRefreshToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(*user.RefreshTokenHash)) != 1 {
		return nil, nil, ErrInvalidToken
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, nil, err
	}
	// Concurrent refreshes with the same token race here; only one swap wins.
	if err := s.repo.SwapRefreshTokenHash(ctx, user.ID, presented, hashRefreshToken(pair.RefreshToken)); err != nil {
		if db.IsNoRows(err) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	return user.Identity(), pair, nil
}

// Logout empties the refresh token slot. Logging out an already empty slot
// succeeds.
func (s *AuthService) Logout(ctx context.Context, user *model.AuthUser) error {
	if user == nil {
		return ErrMissingToken
	}
	if err := s.repo.SetRefreshTokenHash(ctx, user.ID, nil); err != nil {
		if db.IsNoRows(err) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// ChangePassword replaces the password hash. Existing tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, identity *model.AuthUser, oldPassword, newPassword string) error {
	if identity == nil {
		return ErrMissingToken
	}
	if oldPassword == "" || newPassword == "" {
		return invalidInput("oldPassword and newPassword are required")
	}
	if oldPassword == newPassword {
		return invalidInput("new password must differ from the current one")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, identity.ID)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrInvalidToken
		}
		return err
	}
	if !VerifyPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if db.IsNoRows(err) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// Authenticate resolves an access token to the identity of an existing user.
// It runs in full on every call; nothing is cached.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	userID, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user.Identity(), nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID int64) (*TokenPair, error) {
	pair, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}

	slot := hashRefreshToken(pair.RefreshToken)
	if err := s.repo.SetRefreshTokenHash(ctx, userID, &slot); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return pair, nil
}

func normalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return invalidInput(fmt.Sprintf("password must be %d-%d characters", minPasswordLength, maxPasswordLength))
	}
	return nil
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}
