package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// SQLiteCache is a SQLite implementation of the ReputationCache interface
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite reputation cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS domain_reputation (
			domain TEXT PRIMARY KEY,
			reputation TEXT,
			score INTEGER,
			reasons TEXT,
			last_checked TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_reputation_expires_at ON domain_reputation(expires_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	c := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go c.startCleanupTask()

	return c, nil
}

// Get retrieves a cached reputation for a domain
func (c *SQLiteCache) Get(ctx context.Context, domain string) (*core.DomainReputation, error) {
	var rep core.DomainReputation
	var reasons string
	var lastChecked, expiresAt time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT domain, reputation, score, reasons, last_checked, expires_at
		FROM domain_reputation
		WHERE domain = ? AND expires_at > ?
	`, domain, time.Now()).Scan(&rep.Domain, &rep.Reputation, &rep.Score, &reasons, &lastChecked, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query reputation cache: %w", err)
	}

	if reasons != "" {
		rep.Reasons = strings.Split(reasons, "\n")
	}
	rep.LastChecked = lastChecked
	rep.ExpiresAt = expiresAt
	return &rep, nil
}

// Set stores a reputation entry, replacing any previous verdict
func (c *SQLiteCache) Set(ctx context.Context, rep *core.DomainReputation) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO domain_reputation
			(domain, reputation, score, reasons, last_checked, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rep.Domain, string(rep.Reputation), rep.Score, strings.Join(rep.Reasons, "\n"), rep.LastChecked, rep.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store reputation entry: %w", err)
	}
	return nil
}

// Delete removes a reputation entry
func (c *SQLiteCache) Delete(ctx context.Context, domain string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM domain_reputation WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete reputation entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM domain_reputation WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return fmt.Errorf("failed to clean up reputation cache: %w", err)
	}
	if count, err := res.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired reputation entries", zap.Int64("expired_count", count))
	}
	return nil
}

func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up reputation cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
