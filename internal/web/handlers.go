package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/tazhate/tisscal/internal/domain"
	"github.com/tazhate/tisscal/internal/lva"
)

const sessionCookie = "token"

// === Feed ===

// serveCalendar is the anonymous subscription endpoint: the token alone
// grants read access to the produced feed. Fetch and parse failures of the
// remote source deliberately surface as "no calendar available" instead of
// leaking transport detail.
func (s *Server) serveCalendar(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	ics, err := s.calendars.Produce(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrCalendarUnavailable),
			errors.Is(err, domain.ErrMalformedFeed):
			writeError(w, http.StatusNotFound, "no calendar available")
		case errors.Is(err, lva.ErrUnknownCourseType):
			log.Printf("Error producing calendar: %v", err)
			writeError(w, http.StatusInternalServerError, "calendar could not be processed")
		default:
			log.Printf("Error producing calendar: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if _, err := w.Write([]byte(ics)); err != nil {
		log.Printf("Error writing calendar response: %v", err)
	}
}

// === Accounts ===

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Username string `json:"username"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{Username: user.Username})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.users.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusNotFound, "user name or password incorrect")
			return
		}
		s.internalError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, userResponse{Username: req.Username})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if _, err := s.currentUser(r); err != nil {
		s.authError(w, err)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.users.Logout(cookie.Value); err != nil {
			s.internalError(w, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.authError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Username: user.Username})
}

// === Calendars ===

type createCalendarRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (s *Server) createCalendar(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.authError(w, err)
		return
	}

	var req createCalendarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.calendars.Create(r.Context(), user.ID, req.URL, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrCalendarUnavailable) || errors.Is(err, domain.ErrMalformedFeed) {
			writeError(w, http.StatusBadRequest, "calendar source could not be read")
			return
		}
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarResponse(cfg))
}

func (s *Server) changeCalendar(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.authError(w, err)
		return
	}

	var req calendarResponse
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.calendars.Update(r.Context(), user.ID, fromCalendarRequest(&req))
	if err != nil {
		s.calendarError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarResponse(updated))
}

func (s *Server) listCalendars(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.authError(w, err)
		return
	}

	configs, err := s.calendars.ListByOwner(user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}

	resp := make([]calendarResponse, 0, len(configs))
	for _, cfg := range configs {
		resp = append(resp, *toCalendarResponse(cfg))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) calendarData(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.authError(w, err)
		return
	}

	cfg, err := s.calendars.GetForOwner(r.PathValue("token"), user.ID)
	if err != nil {
		s.calendarError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarResponse(cfg))
}

func (s *Server) deleteCalendar(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.authError(w, err)
		return
	}

	if err := s.calendars.Delete(r.PathValue("token"), user.ID); err != nil {
		s.calendarError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "calendar deleted"})
}
