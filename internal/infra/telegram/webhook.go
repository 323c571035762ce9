package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookServer receives Telegram updates over HTTP instead of long
// polling. The secret path segment is the only request authentication, as
// Telegram recommends for webhook deployments.
type WebhookServer struct {
	client *Client
	logger *zap.Logger
	server *http.Server
}

func NewWebhookServer(addr, secretPath string, client *Client, logger *zap.Logger) (*WebhookServer, error) {
	if client == nil {
		return nil, errors.New("telegram client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	secretPath = strings.Trim(strings.TrimSpace(secretPath), "/")
	if secretPath == "" {
		return nil, errors.New("webhook secret path is required")
	}

	ws := &WebhookServer{client: client, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/webhook/"+secretPath, ws.handleUpdate)

	ws.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws, nil
}

func (s *WebhookServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		s.logger.Warn("decode webhook update", zap.Error(err))
		http.Error(w, "decode update", http.StatusBadRequest)
		return
	}

	s.client.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

func (s *WebhookServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
