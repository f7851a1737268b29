package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/ports"
)

// Mask replaces redacted cells.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.TableStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks the cells of every column
// whose name matches one of the patterns before the snapshot is stored.
// The table passed to Save is not modified.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.TableStore) ports.TableStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, key string, table *domain.Table) error {
	cloned := table.Clone()
	for _, c := range cloned.Columns() {
		if !m.matches(c) {
			continue
		}
		for i := 0; i < cloned.Len(); i++ {
			if cloned.Get(i, c) != nil {
				cloned.Set(i, c, Mask)
			}
		}
	}
	return m.next.Save(ctx, key, cloned)
}

func (m *redactionMiddleware) matches(column string) bool {
	for _, p := range m.patterns {
		if p.MatchString(column) {
			return true
		}
	}
	return false
}

func (m *redactionMiddleware) Load(ctx context.Context, key string) (*domain.Table, error) {
	return m.next.Load(ctx, key)
}

func (m *redactionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
