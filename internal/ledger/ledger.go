package ledger

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS visitors (
	id TEXT PRIMARY KEY,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT,
	path TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_visitors_created_at ON visitors(created_at);

CREATE TABLE IF NOT EXISTS contact_attempts (
	id TEXT PRIMARY KEY,
	hashed_ip TEXT NOT NULL,
	delivered INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contact_attempts_ip ON contact_attempts(hashed_ip, created_at);
`

// Ledger records page visits and contact attempts against salted IP
// hashes. Raw addresses and message bodies are never stored.
type Ledger struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

// Stats summarises the ledger.
type Stats struct {
	TotalVisitors    int64 `json:"total_visitors"`
	UniqueVisitors   int64 `json:"unique_visitors"`
	VisitorsToday    int64 `json:"visitors_today"`
	ContactAttempts  int64 `json:"contact_attempts"`
	ContactDelivered int64 `json:"contact_delivered"`
}

// Open connects to the sqlite database at dsn and creates the schema.
// An empty salt gets a random one, so hashes do not survive a restart.
func Open(dsn, salt string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	// One connection keeps an in-memory database shared and serialises writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if salt == "" {
		salt, err = NewSalt()
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Ledger{db: db, salt: salt, now: time.Now}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// NewSalt returns 32 random bytes, hex encoded.
func NewSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashIP returns a truncated salted SHA-256 of ip, stable for one salt.
func (l *Ledger) HashIP(ip string) string {
	h := sha256.New()
	h.Write([]byte(ip + l.salt))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// RecordVisit stores one page view.
func (l *Ledger) RecordVisit(ctx context.Context, ip, userAgent, path string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO visitors (id, hashed_ip, user_agent, path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), l.HashIP(ip), userAgent, path, l.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// RecordAttempt stores one contact relay attempt and whether it was delivered.
func (l *Ledger) RecordAttempt(ctx context.Context, ip string, delivered bool) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO contact_attempts (id, hashed_ip, delivered, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), l.HashIP(ip), delivered, l.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("recording contact attempt: %w", err)
	}
	return nil
}

// Attempts counts contact attempts from ip since the given time and returns
// the oldest of them.
func (l *Ledger) Attempts(ctx context.Context, ip string, since time.Time) (int, time.Time, error) {
	var (
		count  int
		oldest sql.NullInt64
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(created_at) FROM contact_attempts
		WHERE hashed_ip = ? AND created_at >= ?
	`, l.HashIP(ip), since.UnixMilli()).Scan(&count, &oldest)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("counting contact attempts: %w", err)
	}
	var first time.Time
	if oldest.Valid {
		first = time.UnixMilli(oldest.Int64)
	}
	return count, first, nil
}

func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	dayStart := startOfDay(l.now()).UnixMilli()

	queries := []struct {
		query string
		args  []any
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM visitors", nil, &stats.TotalVisitors},
		{"SELECT COUNT(DISTINCT hashed_ip) FROM visitors", nil, &stats.UniqueVisitors},
		{"SELECT COUNT(*) FROM visitors WHERE created_at >= ?", []any{dayStart}, &stats.VisitorsToday},
		{"SELECT COUNT(*) FROM contact_attempts", nil, &stats.ContactAttempts},
		{"SELECT COUNT(*) FROM contact_attempts WHERE delivered = 1", nil, &stats.ContactDelivered},
	}
	for _, q := range queries {
		if err := l.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("loading stats: %w", err)
		}
	}
	return stats, nil
}

// Cleanup deletes rows older than retention and reports how many went.
func (l *Ledger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UnixMilli()
	var total int64
	for _, table := range []string{"visitors", "contact_attempts"} {
		res, err := l.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("cleaning %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
