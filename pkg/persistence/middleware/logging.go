package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.TableStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store operation at debug level and failures at warn level.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.TableStore) ports.TableStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op, key string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "key", key, "duration", time.Since(start))
	if err != nil {
		m.logger.WarnContext(ctx, "snapshot store operation failed", append(attrs, "error", err)...)
		return
	}
	m.logger.DebugContext(ctx, "snapshot store operation", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, key string, table *domain.Table) error {
	start := time.Now()
	err := m.next.Save(ctx, key, table)
	m.log(ctx, "save", key, start, err, "rows", table.Len())
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, key string) (*domain.Table, error) {
	start := time.Now()
	t, err := m.next.Load(ctx, key)
	m.log(ctx, "load", key, start, err, "rows", t.Len())
	return t, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := m.next.Delete(ctx, key)
	m.log(ctx, "delete", key, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := m.next.List(ctx)
	m.log(ctx, "list", "", start, err, "keys", len(keys))
	return keys, err
}
