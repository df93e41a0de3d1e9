package resolver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/windowsadmins/appbundle/pkg/catalog"
	"github.com/windowsadmins/appbundle/pkg/logging"
)

// LatestVersion is reported when the vendor endpoint does not expose one.
const LatestVersion = "Latest"

// resolveOmaha follows the vendor's redirecting installer URL. The endpoint
// always serves the current build, so any failure falls back to the fixed
// URL rather than giving up.
func (r *Resolver) resolveOmaha(ctx context.Context, item catalog.Item) (*ResolvedDownload, error) {
	fallback := &ResolvedDownload{URL: r.omahaURL, Version: LatestVersion}

	req, err := r.newRequest(ctx, http.MethodHead, r.omahaURL)
	if err != nil {
		logging.Debug("Omaha request failed, using fixed URL", "item", item.ID,
			"error", &ResolutionError{Source: catalog.SourceOmaha, Op: "request", Err: err})
		return fallback, nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		logging.Debug("Omaha request failed, using fixed URL", "item", item.ID,
			"error", &ResolutionError{Source: catalog.SourceOmaha, Op: "head", Err: err})
		return fallback, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Debug("Omaha request failed, using fixed URL", "item", item.ID,
			"error", &ResolutionError{Source: catalog.SourceOmaha, Op: "head", Err: fmt.Errorf("HTTP %d", resp.StatusCode)})
		return fallback, nil
	}

	return &ResolvedDownload{URL: resp.Request.URL.String(), Version: LatestVersion}, nil
}
