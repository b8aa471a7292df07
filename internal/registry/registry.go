// Package registry resolves reference-field slugs (organisations, topics,
// document series and the like) to their display documents. Each registry
// loads its full slug table from the engine and refreshes it on a TTL;
// construction happens once at startup and instances are injected into the
// request path.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
	"github.com/kailas-cloud/unisearch/internal/engine"
	"github.com/kailas-cloud/unisearch/internal/metrics"
)

// DefaultTTL is how long a loaded slug table stays fresh.
const DefaultTTL = 5 * time.Minute

// maxEntries bounds one registry load. Registries hold hundreds of
// documents, not millions.
const maxEntries = 1500

// Config holds the settings for one registry.
type Config struct {
	// Name is the short registry name, e.g. "organisations".
	Name string
	// Index is the engine index holding the registry documents.
	Index string
	// Format scopes the load to documents of this format.
	Format string
	// Fields are returned per display document.
	Fields []string
	TTL    time.Duration
	Logger *zap.Logger
}

// Registry is a slug -> display document lookup with a TTL cache.
type Registry struct {
	cfg      Config
	searcher engine.Searcher

	mu       sync.RWMutex
	bySlug   map[string]map[string]any
	loadedAt time.Time
}

// New creates a Registry.
func New(cfg Config, searcher engine.Searcher) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registry{cfg: cfg, searcher: searcher}
}

// Name returns the short registry name.
func (r *Registry) Name() string { return r.cfg.Name }

// Lookup resolves a slug to its display document. A miss returns nil with
// no error; an unreachable engine with no cached table returns an upstream
// error.
func (r *Registry) Lookup(ctx context.Context, slug string) (map[string]any, error) {
	table, err := r.table(ctx)
	if err != nil {
		return nil, err
	}
	doc, ok := table[slug]
	if !ok {
		metrics.RegistryCacheTotal.WithLabelValues(r.cfg.Name, "miss").Inc()
		return nil, nil
	}
	metrics.RegistryCacheTotal.WithLabelValues(r.cfg.Name, "hit").Inc()
	return doc, nil
}

func (r *Registry) table(ctx context.Context) (map[string]map[string]any, error) {
	r.mu.RLock()
	table, loadedAt := r.bySlug, r.loadedAt
	r.mu.RUnlock()

	if table != nil && time.Since(loadedAt) < r.cfg.TTL {
		return table, nil
	}

	fresh, err := r.load(ctx)
	if err != nil {
		if table != nil {
			// Stale data beats a failed request here.
			r.cfg.Logger.Warn("registry refresh failed, serving stale table",
				zap.String("registry", r.cfg.Name), zap.Error(err))
			return table, nil
		}
		return nil, fmt.Errorf("load registry %s: %w", r.cfg.Name, err)
	}

	r.mu.Lock()
	r.bySlug = fresh
	r.loadedAt = time.Now()
	r.mu.Unlock()
	return fresh, nil
}

func (r *Registry) load(ctx context.Context) (map[string]map[string]any, error) {
	formatFilter, err := filter.NewText("format", []string{r.cfg.Format}, false)
	if err != nil {
		return nil, err
	}

	resp, err := r.searcher.Search(ctx, &engine.Request{
		Indices:      []string{r.cfg.Index},
		Size:         maxEntries,
		Relevance:    query.Relevance{},
		Filters:      []filter.Filter{formatFilter},
		ReturnFields: r.cfg.Fields,
	})
	if err != nil {
		return nil, err
	}

	table := make(map[string]map[string]any, len(resp.Hits))
	for _, hit := range resp.Hits {
		slug, ok := scalarField(hit.Fields, "slug").(string)
		if !ok || slug == "" {
			continue
		}
		doc := make(map[string]any, len(hit.Fields))
		for name := range hit.Fields {
			doc[name] = scalarField(hit.Fields, name)
		}
		table[slug] = doc
	}
	return table, nil
}

// scalarField unwraps the engine's one-element field arrays.
func scalarField(fields map[string]any, name string) any {
	value := fields[name]
	if list, ok := value.([]any); ok && len(list) == 1 {
		return list[0]
	}
	return value
}
