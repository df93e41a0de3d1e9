package resolver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
	"golang.org/x/net/html"

	"github.com/windowsadmins/appbundle/pkg/catalog"
	"github.com/windowsadmins/appbundle/pkg/logging"
)

const maxListingBytes = 4 << 20

var versionInName = regexp.MustCompile(`\d+(\.\d+)+`)

// resolveMirror scrapes a directory listing for the installer and its
// checksum file.
func (r *Resolver) resolveMirror(ctx context.Context, item catalog.Item) (*ResolvedDownload, error) {
	base, err := url.Parse(r.mirrorURL)
	if err != nil {
		return nil, &ResolutionError{Source: catalog.SourceVideoLAN, Op: "parse mirror url", Err: err}
	}

	body, err := r.fetch(ctx, r.mirrorURL)
	if err != nil {
		return nil, &ResolutionError{Source: catalog.SourceVideoLAN, Op: "listing", Err: err}
	}

	installerHref, digestHref, err := scanListing(body)
	if err != nil {
		return nil, &ResolutionError{Source: catalog.SourceVideoLAN, Op: "parse listing", Err: err}
	}
	if installerHref == "" {
		return nil, &ResolutionError{Source: catalog.SourceVideoLAN, Op: "listing", Err: fmt.Errorf("no installer link in %s", r.mirrorURL)}
	}

	installerURL, err := base.Parse(installerHref)
	if err != nil {
		return nil, &ResolutionError{Source: catalog.SourceVideoLAN, Op: "installer link", Err: err}
	}

	rd := &ResolvedDownload{
		URL:     installerURL.String(),
		Version: versionFromName(path.Base(installerURL.Path)),
	}

	if digestHref != "" {
		rd.Digest = r.fetchDigest(ctx, base, digestHref, item.ID)
	}
	return rd, nil
}

// fetchDigest returns "" on any failure; the download proceeds unverified.
func (r *Resolver) fetchDigest(ctx context.Context, base *url.URL, href, itemID string) string {
	digestURL, err := base.Parse(href)
	if err != nil {
		logging.Warn("Invalid digest link", "item", itemID, "href", href, "error", err)
		return ""
	}
	body, err := r.fetch(ctx, digestURL.String())
	if err != nil {
		logging.Warn("Failed to fetch digest file", "item", itemID,
			"error", &ResolutionError{Source: catalog.SourceVideoLAN, Op: "digest", Err: err})
		return ""
	}
	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		logging.Warn("Digest file is empty", "item", itemID, "url", digestURL.String())
		return ""
	}
	return strings.ToLower(fields[0])
}

func (r *Resolver) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := r.newRequest(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: HTTP %d", target, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
}

// scanListing returns the first href ending in .exe and the first ending in
// .sha256, in document order.
func scanListing(body []byte) (installer, digest string, err error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				lower := strings.ToLower(href)
				switch {
				case installer == "" && strings.HasSuffix(lower, ".exe"):
					installer = href
				case digest == "" && strings.HasSuffix(lower, ".sha256"):
					digest = href
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return installer, digest, nil
}

// versionFromName extracts "3.0.21" from "vlc-3.0.21-win64.exe".
func versionFromName(name string) string {
	match := versionInName.FindString(name)
	if match == "" {
		return ""
	}
	v, err := version.NewVersion(match)
	if err != nil {
		return ""
	}
	return v.String()
}
