package main

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	pikpak "github.com/ppdrive/pikpak-go"
)

// maxParallelResolves bounds concurrent path resolution for multi-path
// commands.
const maxParallelResolves = 4

// cleanRemotePath strips leading/trailing slashes, returns "" for root.
func cleanRemotePath(path string) string {
	return strings.Trim(path, "/")
}

// pathDepth counts the non-empty segments of a remote path.
func pathDepth(path string) int {
	depth := 0

	for _, seg := range strings.Split(path, "/") {
		if strings.TrimSpace(seg) != "" {
			depth++
		}
	}

	return depth
}

// resolveEntryID resolves a remote path to its entry id. Returns the
// empty id for the root path and an error when the path does not fully
// resolve.
func resolveEntryID(ctx context.Context, client *pikpak.Client, path string) (string, error) {
	depth := pathDepth(path)
	if depth == 0 {
		return "", nil
	}

	chain, err := client.PathToID(ctx, path, false)
	if err != nil {
		return "", err
	}

	if len(chain) < depth {
		return "", fmt.Errorf("path not found: %s", path)
	}

	return chain[len(chain)-1].ID, nil
}

// resolveFolderID resolves a remote path to a folder id, optionally
// creating missing folders along the way.
func resolveFolderID(ctx context.Context, client *pikpak.Client, path string, create bool) (string, error) {
	depth := pathDepth(path)
	if depth == 0 {
		return "", nil
	}

	chain, err := client.PathToID(ctx, path, create)
	if err != nil {
		return "", err
	}

	if len(chain) < depth {
		return "", fmt.Errorf("folder not found: %s", path)
	}

	last := chain[len(chain)-1]
	if last.Kind != pikpak.KindFolder {
		return "", fmt.Errorf("not a folder: %s", path)
	}

	return last.ID, nil
}

// resolveEntryIDs resolves several remote paths concurrently, preserving
// argument order. Resolution shares the client's path cache, so sibling
// paths cost a single listing.
func resolveEntryIDs(ctx context.Context, client *pikpak.Client, paths []string) ([]string, error) {
	ids := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelResolves)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			id, err := resolveEntryID(gctx, client, path)
			if err != nil {
				return err
			}

			ids[i] = id

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ids, nil
}
