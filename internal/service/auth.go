package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templatedir/templatedir-server/internal/auth"
	"github.com/templatedir/templatedir-server/internal/domain"
	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/id"
	"github.com/templatedir/templatedir-server/internal/sse"
	"github.com/templatedir/templatedir-server/internal/store"
	"github.com/templatedir/templatedir-server/internal/validation"
)

// AuthService handles sign-up, sign-in, token refresh and sign-out.
// Every signed-in client holds one session row; deleting it revokes the
// refresh token and fails later access-token checks.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	events       EventEmitter
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	validator *validation.Validator,
	events EventEmitter,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		validator:    validator,
		events:       emitterOrNoop(events),
		logger:       discardLogger(logger),
	}
}

// SignUpRequest contains new account data.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Username string `json:"username" validate:"omitempty,max=64"`
}

// SignInRequest contains user credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ClientMeta describes the client a session is opened for.
// Extracted from the request by the handler.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// SessionResponse contains session tokens and metadata.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Seconds until the access token expires
	SessionID    string `json:"session_id"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest, meta ClientMeta) (*AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           id.NewUserID(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Username:     req.Username,
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		s.logger.Error("failed to create user", "email", user.Email, "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", user.ID, "email", user.Email)

	return &AuthResponse{User: user, SessionResponse: *resp}, nil
}

// SignIn checks credentials and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest, meta ClientMeta) (*AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	resp, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", "user_id", user.ID)

	return &AuthResponse{User: user, SessionResponse: *resp}, nil
}

// openSession creates the session row and its tokens.
func (s *AuthService) openSession(ctx context.Context, user *domain.User, meta ClientMeta) (*SessionResponse, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.events.Emit(sse.NewSignedInEvent(user.ID, sessionID))

	return s.sessionResponse(accessToken, refreshToken, sessionID), nil
}

func (s *AuthService) sessionResponse(accessToken, refreshToken, sessionID string) *SessionResponse {
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}
}

// Refresh rotates the tokens of the session that owns refreshToken.
// The presented refresh token stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domainerrors.Validation("refresh_token is required")
	}

	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid or expired refresh token")
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if session.IsExpired() {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, domainerrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, domainerrors.Unauthorized("user not found").WithCause(err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	newRefreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session.RefreshTokenHash = auth.HashRefreshToken(newRefreshToken)
	session.ExpiresAt = time.Now().Add(s.tokenService.RefreshTokenDuration())
	if meta.IPAddress != "" {
		session.IPAddress = meta.IPAddress
	}
	if meta.UserAgent != "" {
		session.UserAgent = meta.UserAgent
	}

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *s.sessionResponse(accessToken, newRefreshToken, session.ID),
	}, nil
}

// SignOut ends a session. Only the session's own user may end it.
func (s *AuthService) SignOut(ctx context.Context, userID, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("session not found")
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return domainerrors.Forbidden("you do not own this session")
	}

	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("user signed out", "user_id", userID, "session_id", sessionID)
	s.events.Emit(sse.NewSignedOutEvent(userID, sessionID))

	return nil
}

// Session returns the live session with the given id.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("session has ended")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired() {
		return nil, domainerrors.Unauthorized("session has ended")
	}
	return session, nil
}

// VerifyAccessToken validates a token and returns its user. The token's
// session must still exist, so signing out revokes outstanding tokens.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	if _, err := s.Session(ctx, claims.SessionID); err != nil {
		return nil, nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// DeleteExpiredSessions removes every expired session. Run periodically.
func (s *AuthService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	if count > 0 {
		s.logger.Info("deleted expired sessions", "count", count)
	}

	return count, nil
}
