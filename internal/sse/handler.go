package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const writeTimeout = 60 * time.Second

// UserResolver returns the authenticated user id for a request, or ""
// for an anonymous connection.
type UserResolver func(r *http.Request) string

// Handler streams events at GET /api/v1/events. The optional ?listing=
// query narrows the stream to one listing.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
	resolve UserResolver
}

// NewHandler creates a Handler. A nil resolver treats every connection
// as anonymous.
func NewHandler(manager *Manager, logger *slog.Logger, resolve UserResolver) *Handler {
	if resolve == nil {
		resolve = func(*http.Request) string { return "" }
	}
	return &Handler{manager: manager, logger: logger, resolve: resolve}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}

	sub := Subscription{
		UserID:    h.resolve(r),
		ListingID: r.URL.Query().Get("listing"),
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming unsupported", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect(sub)
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With(slog.String("client_id", client.ID))

	hello := map[string]string{"client_id": client.ID}
	if sub.ListingID != "" {
		hello["repo_id"] = sub.ListingID
	}
	if err := h.write(w, rc, "connected", hello); err != nil {
		log.Warn("failed to send connected frame", slog.String("error", err.Error()))
		return
	}

	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				log.Info("stream closed by manager")
				return
			}
			if err := h.write(w, rc, string(event.Type), event); err != nil {
				log.Info("client went away", slog.String("error", err.Error()))
				return
			}
		case <-client.Done:
			log.Info("stream closed by manager")
			return
		case <-ctx.Done():
			return
		}
	}
}

// write emits one "event:/data:" frame and flushes it.
func (h *Handler) write(w http.ResponseWriter, rc *http.ResponseController, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", name, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("write deadline unsupported", slog.String("error", err.Error()))
	}
	return nil
}
