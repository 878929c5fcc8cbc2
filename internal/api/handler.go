package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"tempmail/internal/domain"
	"tempmail/internal/mailtm"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Provider is the slice of the mail.tm adapter the façade depends on.
// ListDomains and GetMessages are best-effort and never fail.
type Provider interface {
	ListDomains(ctx context.Context) []string
	CreateInbox(ctx context.Context, customName string) (*domain.Inbox, error)
	GetMessages(ctx context.Context, token string) []domain.Message
}

type Handler struct {
	mail Provider
}

func New(mail Provider) *Handler {
	return &Handler{mail: mail}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/inbox/create", h.createInbox)
		r.Get("/inbox/{inboxID}/messages", h.getMessages)
		r.Get("/domains", h.getDomains)
		r.Get("/health", h.health)
	})

	return r
}

type CreateInboxRequest struct {
	CustomName string `json:"custom_name"`
}

type InboxResponse struct {
	Inbox        *domain.Inbox    `json:"inbox"`
	Messages     []domain.Message `json:"messages"`
	MessageCount int              `json:"message_count"`
}

func (h *Handler) createInbox(w http.ResponseWriter, r *http.Request) {
	var req CreateInboxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inbox, err := h.mail.CreateInbox(r.Context(), req.CustomName)
	if err != nil {
		h.providerError(w, r, "inbox creation failed", err)
		return
	}

	// Creation never includes messages; callers poll the messages route.
	writeJSON(w, http.StatusOK, InboxResponse{
		Inbox:        inbox,
		Messages:     []domain.Message{},
		MessageCount: 0,
	})
}

func (h *Handler) getMessages(w http.ResponseWriter, r *http.Request) {
	// inboxID names the mailbox in the URL only; the provider scopes the
	// lookup by the bearer token alone.
	inboxID := chi.URLParam(r, "inboxID")
	token := r.URL.Query().Get("token")

	msgs := h.mail.GetMessages(r.Context(), token)
	log.Printf("[%s] inbox %s: %d messages", RequestID(r.Context()), inboxID, len(msgs))

	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) getDomains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mail.ListDomains(r.Context()))
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// providerError maps adapter failures onto client responses: provider
// rejections keep their status code and raw text, everything else collapses
// to a generic 500 with details only in the server log.
func (h *Handler) providerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.Printf("[%s] %s: %v", RequestID(r.Context()), msg, err)

	var apiErr *mailtm.APIError
	if errors.As(err, &apiErr) {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
		return
	}
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
