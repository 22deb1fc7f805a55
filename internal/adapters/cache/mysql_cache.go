package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// MySQLCache is a MySQL implementation of the ReputationCache interface,
// for deployments where several filter instances share one reputation view
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL reputation cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS domain_reputation (
			domain VARCHAR(255) PRIMARY KEY,
			reputation VARCHAR(32),
			score INT,
			reasons TEXT,
			last_checked TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_reputation_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	c := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go c.startCleanupTask()

	return c, nil
}

// Get retrieves a cached reputation for a domain
func (c *MySQLCache) Get(ctx context.Context, domain string) (*core.DomainReputation, error) {
	var rep core.DomainReputation
	var reasons string

	err := c.db.QueryRowContext(ctx, `
		SELECT domain, reputation, score, reasons, last_checked, expires_at
		FROM domain_reputation
		WHERE domain = ? AND expires_at > NOW()
	`, domain).Scan(&rep.Domain, &rep.Reputation, &rep.Score, &reasons, &rep.LastChecked, &rep.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query reputation cache: %w", err)
	}

	if reasons != "" {
		rep.Reasons = strings.Split(reasons, "\n")
	}
	return &rep, nil
}

// Set stores a reputation entry, replacing any previous verdict
func (c *MySQLCache) Set(ctx context.Context, rep *core.DomainReputation) error {
	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO domain_reputation
			(domain, reputation, score, reasons, last_checked, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rep.Domain, string(rep.Reputation), rep.Score, strings.Join(rep.Reasons, "\n"), rep.LastChecked, rep.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store reputation entry: %w", err)
	}
	return nil
}

// Delete removes a reputation entry
func (c *MySQLCache) Delete(ctx context.Context, domain string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM domain_reputation WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete reputation entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM domain_reputation WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clean up reputation cache: %w", err)
	}
	if count, err := res.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired reputation entries", zap.Int64("expired_count", count))
	}
	return nil
}

func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
