package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tazhate/tisscal/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			username_lower TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
		`CREATE TABLE IF NOT EXISTS calendars (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT UNIQUE NOT NULL,
			url TEXT NOT NULL,
			name TEXT NOT NULL,
			owner_id INTEGER NOT NULL,
			summary_template TEXT NOT NULL,
			location_template TEXT NOT NULL,
			description_template TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calendars_owner ON calendars(owner_id)`,
		`CREATE TABLE IF NOT EXISTS calendar_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			calendar_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			will_prettify INTEGER NOT NULL DEFAULT 0,
			will_remove INTEGER NOT NULL DEFAULT 0,
			is_lva INTEGER NOT NULL DEFAULT 0,
			summary_template TEXT,
			location_template TEXT,
			description_template TEXT,
			UNIQUE(calendar_id, name),
			FOREIGN KEY (calendar_id) REFERENCES calendars(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_calendar ON calendar_entries(calendar_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

// === Users ===

func (s *Storage) CreateUser(u *domain.User) error {
	res, err := s.db.Exec(
		`INSERT INTO users (username, username_lower, password_hash) VALUES (?, ?, ?)`,
		u.Username, strings.ToLower(u.Username), u.PasswordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrUsernameTaken
		}
		return err
	}
	id, _ := res.LastInsertId()
	u.ID = id
	u.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetUserByID(id int64) (*domain.User, error) {
	u := &domain.User{}
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetUserByUsername looks a user up case-insensitively.
func (s *Storage) GetUserByUsername(username string) (*domain.User, error) {
	u := &domain.User{}
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE username_lower = ?`,
		strings.ToLower(username),
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// DeleteUser removes a user; sessions and calendars cascade.
func (s *Storage) DeleteUser(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	return err
}

// === Sessions ===

func (s *Storage) CreateSession(sess *domain.Session) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt,
	)
	if err != nil {
		return err
	}
	sess.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetSession(token string) (*domain.Session, error) {
	sess := &domain.Session{}
	err := s.db.QueryRow(
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?`,
		token,
	).Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

func (s *Storage) DeleteSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (s *Storage) DeleteExpiredSessions(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// === Calendars ===

// CreateCalendar stores a calendar and its initial entries in one
// transaction.
func (s *Storage) CreateCalendar(c *domain.CalendarConfig) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO calendars (token, url, name, owner_id, summary_template, location_template, description_template)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Token, c.URL, c.Name, c.OwnerID,
		c.DefaultTemplates.Summary, c.DefaultTemplates.Location, c.DefaultTemplates.Description,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	c.ID = id
	c.CreatedAt = time.Now()

	for i := range c.Entries {
		c.Entries[i].CalendarID = id
		if err := insertEntry(tx, &c.Entries[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Storage) GetCalendarByToken(token string) (*domain.CalendarConfig, error) {
	return s.getCalendar(`SELECT id, token, url, name, owner_id, summary_template, location_template, description_template, created_at
		FROM calendars WHERE token = ?`, token)
}

func (s *Storage) GetCalendarByID(id int64) (*domain.CalendarConfig, error) {
	return s.getCalendar(`SELECT id, token, url, name, owner_id, summary_template, location_template, description_template, created_at
		FROM calendars WHERE id = ?`, id)
}

func (s *Storage) getCalendar(query string, arg any) (*domain.CalendarConfig, error) {
	c := &domain.CalendarConfig{}
	err := s.db.QueryRow(query, arg).Scan(
		&c.ID, &c.Token, &c.URL, &c.Name, &c.OwnerID,
		&c.DefaultTemplates.Summary, &c.DefaultTemplates.Location, &c.DefaultTemplates.Description,
		&c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries, err := s.listEntries(c.ID)
	if err != nil {
		return nil, err
	}
	c.Entries = entries
	return c, nil
}

func (s *Storage) ListCalendarsByOwner(ownerID int64) ([]*domain.CalendarConfig, error) {
	rows, err := s.db.Query(
		`SELECT id, token, url, name, owner_id, summary_template, location_template, description_template, created_at
		 FROM calendars WHERE owner_id = ? ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calendars []*domain.CalendarConfig
	for rows.Next() {
		c := &domain.CalendarConfig{}
		if err := rows.Scan(
			&c.ID, &c.Token, &c.URL, &c.Name, &c.OwnerID,
			&c.DefaultTemplates.Summary, &c.DefaultTemplates.Location, &c.DefaultTemplates.Description,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		calendars = append(calendars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range calendars {
		entries, err := s.listEntries(c.ID)
		if err != nil {
			return nil, err
		}
		c.Entries = entries
	}
	return calendars, nil
}

// UpdateCalendar replaces the calendar's mutable fields and upserts its
// entries by (calendar_id, name). Token and owner are never changed here.
func (s *Storage) UpdateCalendar(c *domain.CalendarConfig) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE calendars SET url = ?, name = ?, summary_template = ?, location_template = ?, description_template = ?
		 WHERE id = ?`,
		c.URL, c.Name,
		c.DefaultTemplates.Summary, c.DefaultTemplates.Location, c.DefaultTemplates.Description,
		c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	for i := range c.Entries {
		e := &c.Entries[i]
		e.CalendarID = c.ID
		_, err := tx.Exec(
			`INSERT INTO calendar_entries (calendar_id, name, will_prettify, will_remove, is_lva, summary_template, location_template, description_template)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(calendar_id, name) DO UPDATE SET
				will_prettify = excluded.will_prettify,
				will_remove = excluded.will_remove,
				summary_template = excluded.summary_template,
				location_template = excluded.location_template,
				description_template = excluded.description_template`,
			e.CalendarID, e.Name, e.WillPrettify, e.WillRemove, e.IsLVA,
			nullString(e.SummaryTemplate), nullString(e.LocationTemplate), nullString(e.DescriptionTemplate),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Storage) DeleteCalendarByToken(token string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM calendars WHERE token = ?`, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertEntries inserts entries that do not exist yet, keyed by
// (calendar_id, name). Existing entries are left untouched, which makes the
// config merge idempotent and safe under concurrent producers for the same
// token: appends converge instead of overwriting each other.
func (s *Storage) UpsertEntries(calendarID int64, entries []domain.EventEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range entries {
		entries[i].CalendarID = calendarID
		if err := insertEntry(tx, &entries[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertEntry(tx *sql.Tx, e *domain.EventEntry) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO calendar_entries (calendar_id, name, will_prettify, will_remove, is_lva, summary_template, location_template, description_template)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CalendarID, e.Name, e.WillPrettify, e.WillRemove, e.IsLVA,
		nullString(e.SummaryTemplate), nullString(e.LocationTemplate), nullString(e.DescriptionTemplate),
	)
	return err
}

func (s *Storage) listEntries(calendarID int64) ([]domain.EventEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, calendar_id, name, will_prettify, will_remove, is_lva, summary_template, location_template, description_template
		 FROM calendar_entries WHERE calendar_id = ? ORDER BY id`,
		calendarID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.EventEntry
	for rows.Next() {
		var e domain.EventEntry
		var summaryTpl, locationTpl, descriptionTpl sql.NullString
		if err := rows.Scan(
			&e.ID, &e.CalendarID, &e.Name, &e.WillPrettify, &e.WillRemove, &e.IsLVA,
			&summaryTpl, &locationTpl, &descriptionTpl,
		); err != nil {
			return nil, err
		}
		e.SummaryTemplate = stringPtr(summaryTpl)
		e.LocationTemplate = stringPtr(locationTpl)
		e.DescriptionTemplate = stringPtr(descriptionTpl)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
