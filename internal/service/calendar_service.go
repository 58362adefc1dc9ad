package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tazhate/tisscal/internal/domain"
	"github.com/tazhate/tisscal/internal/feed"
	"github.com/tazhate/tisscal/internal/lva"
	"github.com/tazhate/tisscal/internal/rooms"
	"github.com/tazhate/tisscal/internal/storage"
)

// CalendarService owns the calendar configs and runs the transformation
// pipeline that turns a remote TISS feed into the published one.
type CalendarService struct {
	storage  *storage.Storage
	fetcher  *feed.Fetcher
	rooms    *rooms.Directory
	baseURL  string
	timezone *time.Location
}

func NewCalendarService(s *storage.Storage, f *feed.Fetcher, dir *rooms.Directory, tissBaseURL string, tz *time.Location) *CalendarService {
	if tz == nil {
		tz = time.UTC
	}
	return &CalendarService{
		storage:  s,
		fetcher:  f,
		rooms:    dir,
		baseURL:  strings.TrimSuffix(tissBaseURL, "/"),
		timezone: tz,
	}
}

// Create registers a new calendar for owner. The source is fetched once to
// validate it and to seed the entry set from its distinct titles.
func (s *CalendarService) Create(ctx context.Context, ownerID int64, url, name string) (*domain.CalendarConfig, error) {
	if url == "" || name == "" {
		return nil, errors.New("url and name are required")
	}

	fd, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	cfg := &domain.CalendarConfig{
		URL:              url,
		Name:             name,
		OwnerID:          ownerID,
		DefaultTemplates: domain.DefaultTemplates(),
	}
	cfg.MergeTitles(fd.DistinctTitles(), lva.IsCourse)

	// The token column is unique; retry in the unlikely event of a clash.
	for attempt := 0; ; attempt++ {
		cfg.Token, err = domain.NewToken()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		err = s.storage.CreateCalendar(cfg)
		if err == nil {
			return cfg, nil
		}
		if attempt >= 2 || !strings.Contains(err.Error(), "UNIQUE constraint failed: calendars.token") {
			return nil, fmt.Errorf("store calendar: %w", err)
		}
	}
}

// GetForOwner returns the calendar with the given token if owner owns it.
func (s *CalendarService) GetForOwner(token string, ownerID int64) (*domain.CalendarConfig, error) {
	cfg, err := s.storage.GetCalendarByToken(token)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	if cfg.OwnerID != ownerID {
		return nil, domain.ErrUnauthorized
	}
	return cfg, nil
}

func (s *CalendarService) ListByOwner(ownerID int64) ([]*domain.CalendarConfig, error) {
	return s.storage.ListCalendarsByOwner(ownerID)
}

// Update applies user edits to entries, templates, name and source URL.
// Token and owner are immutable; the stored values win over whatever the
// request carried.
func (s *CalendarService) Update(ctx context.Context, ownerID int64, updated *domain.CalendarConfig) (*domain.CalendarConfig, error) {
	current, err := s.GetForOwner(updated.Token, ownerID)
	if err != nil {
		return nil, err
	}

	updated.ID = current.ID
	updated.OwnerID = current.OwnerID
	updated.Token = current.Token
	if err := s.storage.UpdateCalendar(updated); err != nil {
		return nil, err
	}
	return s.storage.GetCalendarByID(current.ID)
}

func (s *CalendarService) Delete(token string, ownerID int64) error {
	if _, err := s.GetForOwner(token, ownerID); err != nil {
		return err
	}
	deleted, err := s.storage.DeleteCalendarByToken(token)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

// Produce runs the full pipeline for one token and returns the serialized
// feed: fetch, merge newly seen titles into the stored config, drop removed
// events, prettify flagged ones, recompute identifiers, serialize.
//
// The merged entries are persisted before any transformation so later
// failures do not lose newly observed titles. Removal runs before
// prettification, and identifier recomputation is strictly last so the
// fingerprints cover final content.
func (s *CalendarService) Produce(ctx context.Context, token string) (string, error) {
	cfg, err := s.storage.GetCalendarByToken(token)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", domain.ErrNotFound
	}

	fd, err := s.fetcher.Fetch(ctx, cfg.URL)
	if err != nil {
		return "", err
	}

	if added := cfg.MergeTitles(fd.DistinctTitles(), lva.IsCourse); len(added) > 0 {
		if err := s.storage.UpsertEntries(cfg.ID, added); err != nil {
			return "", fmt.Errorf("persist merged entries: %w", err)
		}
	}

	for i := range cfg.Entries {
		if cfg.Entries[i].WillRemove {
			fd.RemoveByTitle(cfg.Entries[i].Name)
		}
	}

	for i := range cfg.Entries {
		entry := &cfg.Entries[i]
		if !entry.IsLVA || !entry.WillPrettify || entry.WillRemove {
			continue
		}
		if err := s.prettify(fd, cfg, entry); err != nil {
			return "", err
		}
	}

	fd.RecomputeIdentifiers()

	return fd.Serialize()
}

// prettify rewrites every event matching the entry's title. All three
// fields are rendered from the enriched properties before the event is
// mutated; the rewrite itself assigns the summary last.
func (s *CalendarService) prettify(fd *feed.Feed, cfg *domain.CalendarConfig, entry *domain.EventEntry) error {
	templates := entry.EffectiveTemplates(cfg.DefaultTemplates)

	for _, ev := range fd.Events() {
		title := ev.Summary()
		if title != entry.Name {
			continue
		}
		match := lva.Classify(title)
		if match == nil {
			// Stored as LVA but the live title no longer classifies;
			// leave the event alone rather than guessing.
			continue
		}

		start, end, err := ev.Times(s.timezone)
		if err != nil {
			return fmt.Errorf("event %q: %w", title, err)
		}

		props, err := lva.Enrich(lva.EventInfo{
			Summary:     title,
			Description: ev.Description(),
			Location:    ev.Location(),
			Category:    ev.Category(),
			Start:       start,
			End:         end,
		}, match, s.rooms, s.baseURL)
		if err != nil {
			return err
		}

		description := lva.Render(templates.Description, props)
		ev.Rewrite(
			lva.Render(templates.Location, props),
			description,
			lva.DescriptionAltRep(description),
			lva.Render(templates.Summary, props),
		)
	}
	return nil
}
