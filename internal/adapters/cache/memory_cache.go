package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// ErrNotFound is returned when no fresh reputation entry exists for a domain
var ErrNotFound = errors.New("reputation entry not found")

// MemoryCache is an in-memory implementation of the ReputationCache interface
type MemoryCache struct {
	entries     map[string]*core.DomainReputation
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates a new in-memory reputation cache with a background
// cleanup task
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries:     make(map[string]*core.DomainReputation),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go c.startCleanupTask()

	return c
}

// Get retrieves a cached reputation for a domain. Expired entries are
// treated as missing.
func (c *MemoryCache) Get(ctx context.Context, domain string) (*core.DomainReputation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[domain]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, ErrNotFound
	}

	cp := *entry
	return &cp, nil
}

// Set stores a reputation entry
func (c *MemoryCache) Set(ctx context.Context, rep *core.DomainReputation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *rep
	c.entries[rep.Domain] = &cp
	return nil
}

// Delete removes a reputation entry
func (c *MemoryCache) Delete(ctx context.Context, domain string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, domain)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expired := 0
	for domain, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, domain)
			expired++
		}
	}

	c.logger.Debug("Cleaned up expired reputation entries", zap.Int("expired_count", expired))
	return nil
}

func (c *MemoryCache) startCleanupTask() {
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

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
