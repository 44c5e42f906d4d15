package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dkovalev/gemini-relay/pkg/logger"
)

type Authenticator interface {
	IsAuthorized(token string) bool
}

type apiServer struct {
	srv *http.Server
}

func NewAPIServer(port string, authenticator Authenticator, chatHandler http.HandlerFunc) (*apiServer, error) {
	if port == "" {
		return nil, fmt.Errorf("port is empty")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/api/v1/chat", authMiddleware(authenticator, chatHandler))

	return &apiServer{
		srv: &http.Server{
			Addr:    ":" + port,
			Handler: requestIDMiddleware(mux),
		},
	}, nil
}

func (a *apiServer) Name() string { return "api_server_worker" }

func (a *apiServer) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", a.Name(), "addr", a.srv.Addr)
	defer slog.Info("Worker stopped", "name", a.Name())

	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelFn()
		return a.srv.Shutdown(shutdownCtx)
	}
}

var requestCounter int64

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("req-%d", atomic.AddInt64(&requestCounter, 1))
		ctx := logger.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authMiddleware(authenticator Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !authenticator.IsAuthorized(token) {
			slog.WarnContext(r.Context(), "Unauthorized request", "remoteAddr", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
