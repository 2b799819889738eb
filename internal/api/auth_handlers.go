package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "signUp",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/signup",
		Summary:       "Sign up",
		Description:   "Creates an account and opens a session for it",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   s.rateLimited(s.authRateLimiter),
	}, s.handleSignUp)

	huma.Register(s.api, huma.Operation{
		OperationID: "signIn",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signin",
		Summary:     "Sign in",
		Description: "Authenticates with email and password and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
		Middlewares: s.rateLimited(s.authRateLimiter),
	}, s.handleSignIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens",
		Tags:        []string{"Authentication"},
		Middlewares: s.rateLimited(s.authRateLimiter),
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "signOut",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signout",
		Summary:     "Sign out",
		Description: "Ends the session of the presented access token",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSignOut)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/session",
		Summary:     "Current session",
		Description: "Returns the session and user of the presented access token",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSession)
}

// === DTOs ===

// ClientHeaders carries the request headers recorded on a session.
type ClientHeaders struct {
	UserAgent     string `header:"User-Agent"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

func (h ClientHeaders) meta() service.ClientMeta {
	ip := h.XRealIP
	if h.XForwardedFor != "" {
		first, _, _ := strings.Cut(h.XForwardedFor, ",")
		ip = strings.TrimSpace(first)
	}
	return service.ClientMeta{IPAddress: ip, UserAgent: h.UserAgent}
}

// SignUpRequest is the request body for account creation.
type SignUpRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password, at least 8 characters"`
	Username string `json:"username,omitempty" doc:"Optional display name"`
}

// SignUpInput wraps the sign-up request for Huma.
type SignUpInput struct {
	ClientHeaders
	Body SignUpRequest
}

// SignInRequest is the request body for sign-in.
type SignInRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password"`
}

// SignInInput wraps the sign-in request for Huma.
type SignInInput struct {
	ClientHeaders
	Body SignInRequest
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	ClientHeaders
	Body RefreshRequest
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body *service.AuthResponse
}

// SessionInfo describes the caller's session.
type SessionInfo struct {
	SessionID string       `json:"session_id" doc:"Session identifier"`
	ExpiresAt time.Time    `json:"expires_at" doc:"When the refresh token stops working"`
	CreatedAt time.Time    `json:"created_at" doc:"When the session was opened"`
	User      *domain.User `json:"user" doc:"Signed-in user"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionInfo
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleSignUp(ctx context.Context, input *SignUpInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.SignUp(ctx, service.SignUpRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Username: input.Body.Username,
	}, input.meta())
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleSignIn(ctx context.Context, input *SignInInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.SignIn(ctx, service.SignInRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	}, input.meta())
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Refresh(ctx, input.Body.RefreshToken, input.meta())
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleSignOut(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.SignOut(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Signed out"}}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.services.Auth.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("User not found")
	}

	return &SessionOutput{Body: SessionInfo{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		User:      user,
	}}, nil
}
