// pkg/resolver/resolver.go - turns catalog items into concrete download URLs

package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/windowsadmins/appbundle/pkg/catalog"
	"github.com/windowsadmins/appbundle/pkg/config"
	"github.com/windowsadmins/appbundle/pkg/logging"
)

// ResolvedDownload is the outcome of a successful resolution.
type ResolvedDownload struct {
	URL        string
	Digest     string // optional SHA-256 hex
	Version    string // optional
	ResolvedAt time.Time
}

// ResolutionError describes why a strategy produced no download. It is only
// logged; Resolve reports failure as nil.
type ResolutionError struct {
	Source string
	Op     string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type strategy func(ctx context.Context, item catalog.Item) (*ResolvedDownload, error)

// Resolver maps catalog items to downloads using a per-source strategy.
type Resolver struct {
	client     *http.Client
	userAgent  string
	omahaURL   string
	mirrorURL  string
	cache      *Cache
	strategies map[string]strategy
}

// New builds a resolver from configuration. The cache is owned by the
// caller so it can outlive a single run; nil creates a private one.
func New(cfg *config.Configuration, cache *Cache) *Resolver {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if cache == nil {
		cache = NewCache(cfg.CacheTTL())
	}
	r := &Resolver{
		client:    &http.Client{Timeout: cfg.HTTPTimeout()},
		userAgent: cfg.UserAgent,
		omahaURL:  cfg.OmahaURL,
		mirrorURL: cfg.MirrorURL,
		cache:     cache,
	}
	if r.userAgent == "" {
		r.userAgent = config.DefaultUserAgent
	}
	if r.omahaURL == "" {
		r.omahaURL = config.DefaultOmahaURL
	}
	if r.mirrorURL == "" {
		r.mirrorURL = config.DefaultMirrorURL
	}
	r.strategies = map[string]strategy{
		catalog.SourceOmaha:    r.resolveOmaha,
		catalog.SourceVideoLAN: r.resolveMirror,
		catalog.SourceDirect:   r.resolveDirect,
	}
	return r
}

// Cache exposes the resolver's cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve returns where to fetch the item's installer, or nil when no
// download is available. It never panics and never returns an error.
func (r *Resolver) Resolve(ctx context.Context, item catalog.Item) (rd *ResolvedDownload) {
	if cached, ok := r.cache.Get(item.ID); ok {
		logging.Debug("Using cached download", "item", item.ID, "url", cached.URL)
		return cached
	}

	source := strings.ToLower(strings.TrimSpace(item.Source))
	resolve, ok := r.strategies[source]
	if !ok {
		logging.Warn("Unknown download source", "item", item.ID, "source", item.Source)
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			logging.Error("Resolver panicked", "item", item.ID, "source", source, "panic", fmt.Sprint(p))
			rd = nil
		}
	}()

	result, err := resolve(ctx, item)
	if err != nil {
		logging.Warn("Failed to resolve download", "item", item.ID, "error", err)
		return nil
	}
	if result == nil {
		return nil
	}

	result.ResolvedAt = r.cache.clock()
	r.cache.Put(item.ID, *result)
	logging.Info("Resolved download", "item", item.ID, "url", result.URL, "version", result.Version,
		"verified", result.Digest != "")
	return result
}

func (r *Resolver) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	return req, nil
}

func (r *Resolver) resolveDirect(_ context.Context, item catalog.Item) (*ResolvedDownload, error) {
	if strings.TrimSpace(item.URL) == "" {
		return nil, &ResolutionError{Source: catalog.SourceDirect, Op: "url", Err: fmt.Errorf("item %s has no url", item.ID)}
	}
	return &ResolvedDownload{URL: item.URL, Digest: item.SHA256}, nil
}
