package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/tazhate/tisscal/internal/domain"
)

type entryResponse struct {
	Name                string  `json:"name"`
	WillPrettify        bool    `json:"will_prettify"`
	WillRemove          bool    `json:"will_remove"`
	IsLva               bool    `json:"is_lva"`
	SummaryTemplate     *string `json:"summary_template,omitempty"`
	LocationTemplate    *string `json:"location_template,omitempty"`
	DescriptionTemplate *string `json:"description_template,omitempty"`
}

type templatesResponse struct {
	Summary     string `json:"summary"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type calendarResponse struct {
	URL              string            `json:"url"`
	Name             string            `json:"name"`
	Token            string            `json:"token"`
	AllEvents        []entryResponse   `json:"all_events"`
	DefaultTemplates templatesResponse `json:"default_templates"`
}

func toCalendarResponse(cfg *domain.CalendarConfig) *calendarResponse {
	resp := &calendarResponse{
		URL:   cfg.URL,
		Name:  cfg.Name,
		Token: cfg.Token,
		DefaultTemplates: templatesResponse{
			Summary:     cfg.DefaultTemplates.Summary,
			Location:    cfg.DefaultTemplates.Location,
			Description: cfg.DefaultTemplates.Description,
		},
		AllEvents: make([]entryResponse, 0, len(cfg.Entries)),
	}
	for i := range cfg.Entries {
		e := &cfg.Entries[i]
		resp.AllEvents = append(resp.AllEvents, entryResponse{
			Name:                e.Name,
			WillPrettify:        e.WillPrettify,
			WillRemove:          e.WillRemove,
			IsLva:               e.IsLVA,
			SummaryTemplate:     e.SummaryTemplate,
			LocationTemplate:    e.LocationTemplate,
			DescriptionTemplate: e.DescriptionTemplate,
		})
	}
	return resp
}

func fromCalendarRequest(req *calendarResponse) *domain.CalendarConfig {
	cfg := &domain.CalendarConfig{
		URL:   req.URL,
		Name:  req.Name,
		Token: req.Token,
		DefaultTemplates: domain.TemplateSet{
			Summary:     req.DefaultTemplates.Summary,
			Location:    req.DefaultTemplates.Location,
			Description: req.DefaultTemplates.Description,
		},
	}
	for i := range req.AllEvents {
		e := &req.AllEvents[i]
		cfg.Entries = append(cfg.Entries, domain.EventEntry{
			Name:                e.Name,
			WillPrettify:        e.WillPrettify,
			WillRemove:          e.WillRemove,
			IsLVA:               e.IsLva,
			SummaryTemplate:     e.SummaryTemplate,
			LocationTemplate:    e.LocationTemplate,
			DescriptionTemplate: e.DescriptionTemplate,
		})
	}
	return cfg
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// currentUser resolves the session cookie to a user.
func (s *Server) currentUser(r *http.Request) (*domain.User, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return s.users.Verify(cookie.Value)
}

func (s *Server) authError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "request not authenticated")
		return
	}
	s.internalError(w, err)
}

func (s *Server) calendarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "no calendar for this token")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "not your calendar")
	default:
		s.internalError(w, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	log.Printf("Internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
