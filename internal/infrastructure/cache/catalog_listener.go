package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"farmops/internal/core/id"
	"farmops/pkg/logger"
)

// CatalogChannel is the NOTIFY channel the catalog triggers publish on.
// Payloads are "product_type:<name>" or "slaughter:<id>".
const CatalogChannel = "catalog_changed"

// Invalidator drops cached catalog entries.
type Invalidator interface {
	InvalidateProductType(ctx context.Context, name string) error
	InvalidateSlaughter(ctx context.Context, slaughterID id.ID) error
	Flush(ctx context.Context) (int64, error)
}

// CatalogListener invalidates the catalog cache on PostgreSQL NOTIFY events,
// so price list edits made outside the service take effect immediately.
type CatalogListener struct {
	pool  *pgxpool.Pool
	cache Invalidator

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewCatalogListener creates a listener.
func NewCatalogListener(pool *pgxpool.Pool, cache Invalidator) *CatalogListener {
	return &CatalogListener{pool: pool, cache: cache}
}

// Start begins listening in the background.
func (l *CatalogListener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	ctx = logger.WithLogger(ctx, logger.FromContext(ctx).WithComponent("catalog-listener"))
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
}

// Stop gracefully stops the listener.
func (l *CatalogListener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
}

func (l *CatalogListener) listenLoop() {
	defer l.wg.Done()

	for l.ctx.Err() == nil {
		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(l.ctx, "LISTEN "+CatalogChannel); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		// Entries may have changed while we were not listening.
		if _, err := l.cache.Flush(l.ctx); err != nil {
			logger.Warn(l.ctx, "catalog cache flush failed", "error", err)
		}
		logger.Info(l.ctx, "listening for catalog notifications", "channel", CatalogChannel)

		l.waitForNotifications(conn)
		conn.Release()
	}
}

func (l *CatalogListener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			logger.Warn(l.ctx, "LISTEN connection lost", "error", err)
			return
		}

		l.handle(l.ctx, notification.Payload)
	}
}

func (l *CatalogListener) handle(ctx context.Context, payload string) {
	if err := Invalidate(ctx, l.cache, payload); err != nil {
		logger.Warn(ctx, "catalog cache invalidation failed", "payload", payload, "error", err)
	}
}

// Invalidate applies one notification payload to c. Unknown payloads flush everything.
func Invalidate(ctx context.Context, c Invalidator, payload string) error {
	kind, key, _ := strings.Cut(strings.TrimSpace(payload), ":")
	switch kind {
	case "product_type":
		if key != "" {
			return c.InvalidateProductType(ctx, key)
		}
	case "slaughter":
		if slaughterID, err := id.Parse(key); err == nil {
			return c.InvalidateSlaughter(ctx, slaughterID)
		}
	}
	_, err := c.Flush(ctx)
	return err
}

func (l *CatalogListener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
