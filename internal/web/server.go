// Package web exposes the HTTP surface: the tokenized read-only feed
// endpoint and the JSON API for accounts and calendar management.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/tazhate/tisscal/internal/service"
)

type Server struct {
	addr      string
	users     *service.UserService
	calendars *service.CalendarService
}

func New(addr string, users *service.UserService, calendars *service.CalendarService) *Server {
	return &Server{addr: addr, users: users, calendars: calendars}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tisscal/{token}", s.serveCalendar)

	mux.HandleFunc("POST /tisscal/api/register", s.register)
	mux.HandleFunc("POST /tisscal/api/login", s.login)
	mux.HandleFunc("GET /tisscal/api/logout", s.logout)
	mux.HandleFunc("GET /tisscal/api/me", s.me)

	mux.HandleFunc("POST /tisscal/api/cal/create", s.createCalendar)
	mux.HandleFunc("POST /tisscal/api/cal/change", s.changeCalendar)
	mux.HandleFunc("GET /tisscal/api/cal/list", s.listCalendars)
	mux.HandleFunc("GET /tisscal/api/cal/data/{token}", s.calendarData)
	mux.HandleFunc("DELETE /tisscal/api/cal/{token}", s.deleteCalendar)

	mux.HandleFunc("GET /health", s.health)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
