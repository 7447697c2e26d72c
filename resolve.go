package pikpak

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// splitPath normalizes a slash-delimited logical path into its non-empty,
// whitespace-trimmed segments.
func splitPath(path string) []string {
	var segs []string

	for _, raw := range strings.Split(path, "/") {
		seg := strings.TrimSpace(raw)
		if seg != "" {
			segs = append(segs, seg)
		}
	}

	return segs
}

// prefixKey builds the cache key for a path prefix: "/"-joined NFC-normalized
// segments. NFC normalization keeps keys stable across the composed and
// decomposed spellings the service and callers may use for the same name.
func prefixKey(segs []string) string {
	if len(segs) == 0 {
		return ""
	}

	normed := make([]string, len(segs))
	for i, s := range segs {
		normed[i] = norm.NFC.String(s)
	}

	return "/" + strings.Join(normed, "/")
}

// sameName reports whether two entry names are equal after NFC normalization.
func sameName(a, b string) bool {
	return norm.NFC.String(a) == norm.NFC.String(b)
}

// cacheGet looks up a resolved path prefix.
func (c *Client) cacheGet(key string) (PathEntry, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	e, ok := c.pathCache[key]

	return e, ok
}

// cachePut records a resolved path prefix. Entries are never invalidated:
// a written id is treated as authoritative for that exact path string for
// the lifetime of the client. Remote renames or deletes performed outside
// this client can therefore leave stale entries behind; callers that need
// fresh ids must use a new client. Concurrent writers may race on the same
// key; each record is a self-consistent tuple, so the last writer wins.
func (c *Client) cachePut(key string, e PathEntry) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.pathCache[key] = e
}

// PathToID resolves a slash-delimited logical path into the ordered chain
// of {id, name, kind} records for each segment from root to leaf.
//
// Resolution resumes from the deepest cached prefix, then walks the
// remaining segments by listing children of the current parent one page at
// a time, matching folder names. Every listed entry is cached under its
// full prefix path, so resolving one path warms the cache for its siblings.
//
// When a segment cannot be found and create is true, a folder with that
// name is created under the current parent (a remote side effect). With
// create false, resolution stops early and returns the chain built so far
// with a nil error; callers detect partial resolution by comparing the
// chain length to the segment count. An empty path resolves to an empty
// chain, also with a nil error.
func (c *Client) PathToID(ctx context.Context, path string, create bool) ([]PathEntry, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, nil
	}

	chain := make([]PathEntry, 0, len(segs))

	// Resume from the longest cached prefix. Every resolved segment is
	// cached under its full prefix, so cache hits are contiguous from root.
	count := 0
	parentID := ""

	for i := 1; i <= len(segs); i++ {
		e, ok := c.cacheGet(prefixKey(segs[:i]))
		if !ok {
			break
		}

		chain = append(chain, e)
		parentID = e.ID
		count = i
	}

	if count > 0 {
		c.logger.Debug("path resolution resuming from cache",
			slog.String("path", path),
			slog.Int("cached_segments", count),
		)
	}

	var pageToken string

	for count < len(segs) {
		target := segs[count]
		parentKey := prefixKey(segs[:count])

		page, err := c.FileList(ctx, &FileListOptions{ParentID: parentID, PageToken: pageToken})
		if err != nil {
			return nil, err
		}

		var match *PathEntry

		for i := range page.Files {
			f := &page.Files[i]
			entry := PathEntry{ID: f.ID, Name: f.Name, Kind: f.Kind}

			// Cache every listed entry, not only the target, so sibling
			// resolutions become cache hits.
			c.cachePut(parentKey+"/"+norm.NFC.String(strings.TrimSpace(f.Name)), entry)

			if match == nil && f.Kind == KindFolder && sameName(f.Name, target) {
				m := entry
				match = &m
			}
		}

		switch {
		case match != nil:
			chain = append(chain, *match)
			parentID = match.ID
			count++
			pageToken = ""

		case page.NextPageToken != "" && page.NextPageToken != pageToken:
			// More pages for this parent. The same-token comparison guards
			// against a server handing back the page just consumed.
			pageToken = page.NextPageToken

		case create:
			f, err := c.CreateFolder(ctx, target, parentID)
			if err != nil {
				return nil, err
			}

			entry := PathEntry{ID: f.ID, Name: target, Kind: KindFolder}
			c.cachePut(prefixKey(segs[:count+1]), entry)

			c.logger.Info("created missing folder during path resolution",
				slog.String("name", target),
				slog.String("id", f.ID),
			)

			chain = append(chain, entry)
			parentID = entry.ID
			count++
			pageToken = ""

		default:
			// Segment not found and creation disabled: partial result.
			c.logger.Debug("path resolution stopped early",
				slog.String("path", path),
				slog.Int("resolved", count),
				slog.Int("requested", len(segs)),
			)

			return chain, nil
		}
	}

	return chain, nil
}
