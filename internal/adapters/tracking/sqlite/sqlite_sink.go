// Package sqlite persiste eventos de uso num arquivo SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

// Storage guarda os eventos na tabela usage_events.
type Storage struct {
	db *sql.DB
}

var _ ports.UsageSink = (*Storage)(nil)

// NewStorage abre (ou cria) o banco e inicializa o schema.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Only the tracker worker writes; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return storage, nil
}

func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_events (
		event_id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		domain TEXT NOT NULL,
		tier TEXT,
		identity TEXT,
		user_agent TEXT,
		referrer TEXT,
		occurred_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_domain ON usage_events(domain);
	CREATE INDEX IF NOT EXISTS idx_usage_occurred_at ON usage_events(occurred_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record insere o evento; IDs repetidos são ignorados.
func (s *Storage) Record(ctx context.Context, event domain.UsageEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (event_id, action, domain, tier, identity, user_agent, referrer, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`, event.ID, event.Action, event.Domain, string(event.Tier), event.Identity, event.UserAgent, event.Referrer, event.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert usage event: %w", err)
	}
	return nil
}

// DomainCount é uma linha do resumo por domínio.
type DomainCount struct {
	Domain string
	Count  int
	LastAt time.Time
}

// CountByDomain resume os eventos de uma ação, do domínio mais consultado para o menos.
func (s *Storage) CountByDomain(ctx context.Context, action string) ([]DomainCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, COUNT(*), MAX(occurred_at)
		FROM usage_events
		WHERE action = ?
		GROUP BY domain
		ORDER BY COUNT(*) DESC, domain ASC
	`, action)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	var out []DomainCount
	for rows.Next() {
		var (
			dc     DomainCount
			lastAt string
		)
		if err := rows.Scan(&dc.Domain, &dc.Count, &lastAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		dc.LastAt, err = parseTimestamp(lastAt)
		if err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// MAX() perde o tipo da coluna, então o driver devolve texto.
func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q", v)
}

func (s *Storage) Close() error {
	return s.db.Close()
}
