package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

const MinPasswordLength = 8

// AuthService orchestrates sign-in: Google OAuth callbacks and local
// email/password accounts. Both paths funnel into ProfileService.Provision,
// so a profile exists (or is refreshed) on every successful sign-in, and
// both end by minting a JWT for the session cookie.
type AuthService struct {
	credentials repository.CredentialRepository
	profiles    *ProfileService
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	logger      *slog.Logger
}

func NewAuthService(
	credentials repository.CredentialRepository,
	profiles *ProfileService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		credentials: credentials,
		profiles:    profiles,
		tokens:      tokens,
		passwords:   passwords,
		logger:      logger,
	}
}

// AuthResult bundles the signed-in profile and the issued JWT so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	Profile *model.Profile
	Token   string
}

// LoginOrRegisterGoogle handles the Google OAuth callback. The handler has
// already exchanged the code for a GoogleUser; this provisions the profile
// (insert on first login, refresh afterwards) and issues the session token.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gu *auth.GoogleUser) (*AuthResult, error) {
	if gu == nil || gu.ID == "" {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	identity := &model.Identity{
		ID:        "google:" + gu.ID,
		Email:     gu.Email,
		FullName:  gu.Name,
		AvatarURL: gu.Picture,
	}

	profile, err := s.profiles.Provision(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("service/auth: provisioning Google identity: %w", err)
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", profile.ID),
		slog.String("username", profile.Username),
	)

	return s.issueSession(profile)
}

// Register creates a local email/password account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	cred := &model.Credential{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "an account with this email already exists")
		}
		return nil, fmt.Errorf("service/auth: creating credential: %w", err)
	}

	profile, err := s.profiles.Provision(ctx, &model.Identity{
		ID:       cred.ID,
		Email:    email,
		FullName: strings.TrimSpace(fullName),
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: provisioning new account: %w", err)
	}

	s.logger.Info("local account registered",
		slog.String("userID", profile.ID),
		slog.String("username", profile.Username),
	)

	return s.issueSession(profile)
}

// Login verifies an email/password pair and signs the account in.
//
// Wrong email and wrong password both return the same Unauthenticated
// message, so the response doesn't reveal which emails have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up credential: %w", err)
	}

	if err := s.passwords.Verify(cred.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	// Provision is idempotent: it refreshes display fields and returns the
	// existing profile.
	profile, err := s.profiles.Provision(ctx, &model.Identity{
		ID:    cred.ID,
		Email: cred.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: loading profile on login: %w", err)
	}

	s.logger.Info("user authenticated via password", slog.String("userID", profile.ID))

	return s.issueSession(profile)
}

// GetProfileByID returns the profile for a validated session's user ID.
// Used by the /api/me handler after the middleware validates the JWT.
func (s *AuthService) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	if id == "" {
		return nil, apperror.Unauthenticated("login required")
	}
	return s.profiles.GetByID(ctx, id)
}

// ValidateToken validates a JWT string and returns the userID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issueSession(profile *model.Profile) (*AuthResult, error) {
	token, err := s.tokens.Generate(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", profile.ID, err)
	}
	return &AuthResult{Profile: profile, Token: token}, nil
}
