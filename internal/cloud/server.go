/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	applog "paintify/internal/log"
	"paintify/internal/version"
)

// maxUploadBytes caps a single PNG upload.
const maxUploadBytes = 32 << 20

// Backend is what the HTTP server needs from storage. *Store implements it.
type Backend interface {
	Ping(ctx context.Context) error
	UploadImage(ctx context.Context, userID, title string, img []byte) (Drawing, error)
	ListUserDrawings(ctx context.Context, userID string) ([]Drawing, error)
	Image(ctx context.Context, id string) ([]byte, error)
	Share(ctx context.Context, senderID, receiverEmail, imageURL, title string) (Share, error)
	SharedWith(ctx context.Context, email string) ([]Share, error)
	Unshare(ctx context.Context, senderID, imageURL string) (int64, error)
}

// Server exposes a Backend over HTTP with HMAC bearer tokens.
type Server struct {
	backend Backend
	secret  string
	lg      *slog.Logger
	now     func() time.Time
}

// NewServer builds a server. An empty secret falls back to an insecure
// development secret and logs a warning.
func NewServer(b Backend, secret string) *Server {
	lg := applog.WithComponent("cloud.server")
	if secret == "" {
		secret = "dev-secret-change-me"
		lg.Warn("auth secret not set; using insecure dev secret")
	}
	return &Server{backend: b, secret: secret, lg: lg, now: time.Now}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("paintify " + version.String()))
	})
	mux.HandleFunc("POST /api/auth/token", s.handleToken)
	mux.HandleFunc("GET /api/drawings", s.withAuth(s.handleListDrawings))
	mux.HandleFunc("POST /api/drawings", s.withAuth(s.handleUpload))
	mux.HandleFunc("GET /api/drawings/{id}/image", s.withAuth(s.handleImage))
	mux.HandleFunc("GET /api/shared", s.withAuth(s.handleSharedWith))
	mux.HandleFunc("POST /api/shared", s.withAuth(s.handleShare))
	mux.HandleFunc("DELETE /api/shared", s.withAuth(s.handleUnshare))
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.lg.Info("cloud server listening", slog.String("addr", addr))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.lg.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", s.now().Sub(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.backend.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("db not ready"))
		return
	}
	_, _ = w.Write([]byte("ready"))
}

// handleToken issues a token for the requested subject. Body (optional):
// {"subject": "...", "email": "...", "ttl_seconds": 3600}
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject    string `json:"subject"`
		Email      string `json:"email"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	_ = json.Unmarshal(b, &req)
	if req.Subject == "" {
		req.Subject = "dev"
	}
	if req.TTLSeconds <= 0 || req.TTLSeconds > 24*3600 {
		req.TTLSeconds = 3600
	}
	exp := s.now().Add(time.Duration(req.TTLSeconds) * time.Second)
	tok, err := signToken(s.secret, Identity{UserID: req.Subject, Email: req.Email}, exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) withAuth(next func(w http.ResponseWriter, r *http.Request, id Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearer(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		id, err := verifyToken(s.secret, token, s.now())
		if err != nil {
			s.lg.Debug("token rejected", slog.Any("err", err))
			writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
			return
		}
		next(w, r, id)
	}
}

func (s *Server) handleListDrawings(w http.ResponseWriter, r *http.Request, id Identity) {
	list, err := s.backend.ListUserDrawings(r.Context(), id.UserID)
	if err != nil {
		s.internalError(w, "list drawings", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleUpload stores the request body (a PNG) under ?title=.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, id Identity) {
	img, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	if len(img) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("empty body"))
		return
	}
	if ct := http.DetectContentType(img); ct != "image/png" {
		writeError(w, http.StatusUnsupportedMediaType, fmt.Errorf("expected image/png, got %s", ct))
		return
	}
	d, err := s.backend.UploadImage(r.Context(), id.UserID, r.URL.Query().Get("title"), img)
	if err != nil {
		s.internalError(w, "upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request, _ Identity) {
	img, err := s.backend.Image(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.internalError(w, "image", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(img)
}

// handleSharedWith lists shares for ?email=, defaulting to the caller's
// own address. Callers with an e-mail claim may only read their own.
func (s *Server) handleSharedWith(w http.ResponseWriter, r *http.Request, id Identity) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		email = id.Email
	}
	if email == "" {
		writeError(w, http.StatusBadRequest, errors.New("email required"))
		return
	}
	if id.Email != "" && !strings.EqualFold(email, id.Email) {
		writeError(w, http.StatusForbidden, errors.New("not your inbox"))
		return
	}
	list, err := s.backend.SharedWith(r.Context(), email)
	if err != nil {
		s.internalError(w, "shared with", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, id Identity) {
	var req struct {
		ReceiverEmail string `json:"receiver_email"`
		ImageURL      string `json:"image_url"`
		Title         string `json:"title"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if !strings.Contains(req.ReceiverEmail, "@") || req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, errors.New("receiver_email and image_url are required"))
		return
	}
	sh, err := s.backend.Share(r.Context(), id.UserID, req.ReceiverEmail, req.ImageURL, req.Title)
	if err != nil {
		s.internalError(w, "share", err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

func (s *Server) handleUnshare(w http.ResponseWriter, r *http.Request, id Identity) {
	url := r.URL.Query().Get("image_url")
	if url == "" {
		writeError(w, http.StatusBadRequest, errors.New("image_url required"))
		return
	}
	n, err := s.backend.Unshare(r.Context(), id.UserID, url)
	if err != nil {
		s.internalError(w, "unshare", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.lg.Error(op+" failed", slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
