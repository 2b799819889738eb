package api

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/http/response"
	"github.com/templatedir/templatedir-server/internal/service"
)

// maxSubmitBody bounds the /submit-repo request body.
const maxSubmitBody = 1 << 20

// SubmitRepoResponse is the 201 body of POST /submit-repo.
type SubmitRepoResponse struct {
	Message string `json:"message"`
	Repo    any    `json:"repo"`
}

// registerLegacyRoutes mounts the form endpoints the web form client
// talks to. They answer with bare JSON, not the API envelope.
func (s *Server) registerLegacyRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/repos", s.handleListRepos)
	s.router.With(RateLimitMiddleware(s.submitRateLimiter, s.logger)).Post("/submit-repo", s.handleSubmitRepo)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	response.Text(w, http.StatusOK, "Hello from the backend server!")
}

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	listings, err := s.services.Listing.ListAll(r.Context())
	if err != nil {
		s.logger.Error("Failed to list repos", "error", err)
		response.JSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Error fetching repos",
			"error":   err.Error(),
		}, s.logger)
		return
	}

	response.JSON(w, http.StatusOK, listings, s.logger)
}

// handleSubmitRepo stores a listing. A bearer token only attributes the
// submission; an invalid one is logged and the listing is stored anonymously.
func (s *Server) handleSubmitRepo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody))
	if err := dec.Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err.Error(), nil, s.logger)
		return
	}

	submitterID := OptionalUserID(ctx)
	if submitterID == "" && bearerToken(r.Header.Get("Authorization")) != "" {
		s.logger.Warn("Ignoring invalid token on submission",
			"path", r.URL.Path,
			"ip", clientIP(r.Header.Get, r.RemoteAddr),
		)
	}

	s.logger.Debug("Received repo submission",
		"name", req.Name,
		"type", req.Type,
		"submitter_id", submitterID,
	)

	listing, err := s.services.Listing.Submit(ctx, submitterID, req)
	if err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) && domainErr.HTTPStatus() < http.StatusInternalServerError {
			details := domainErr.Details
			if details == nil && errors.Unwrap(domainErr) != nil {
				details = errors.Unwrap(domainErr).Error()
			}
			response.BadRequest(w, domainErr.Message, details, req, s.logger)
			return
		}

		s.logger.Error("Submission failed", "name", req.Name, "error", err)
		response.InternalError(w, err.Error(), s.logger)
		return
	}

	response.Created(w, SubmitRepoResponse{
		Message: "Repo submitted successfully",
		Repo:    listing,
	}, s.logger)
}
