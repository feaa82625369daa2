package fsperm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"isafw/internal/analysis"
)

type subtree struct {
	entries []Entry
	skipped []analysis.Skipped
}

// Walk lists root and everything below it without following symlinks. Each
// top-level child is walked by its own goroutine, at most workers at a time.
// Entries that cannot be stat'ed are returned as skipped, directories that
// cannot be listed keep their entry with Unlisted set. Only a root that cannot
// be listed is an error.
func Walk(ctx context.Context, root string, workers int) ([]Entry, []analysis.Skipped, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: not a directory", root)
	}
	children, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, err
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]subtree, len(children))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, child := range children {
		g.Go(func() error {
			return walkSubtree(gctx, root, filepath.Join(root, child.Name()), &results[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	seen := map[string]bool{"/": true}
	entries := []Entry{newEntry("/", info)}
	var skipped []analysis.Skipped
	for _, r := range results {
		for _, e := range r.entries {
			if seen[e.Path] {
				continue
			}
			seen[e.Path] = true
			entries = append(entries, e)
		}
		skipped = append(skipped, r.skipped...)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	sort.SliceStable(skipped, func(i, j int) bool { return skipped[i].Key < skipped[j].Key })
	return entries, skipped, nil
}

func walkSubtree(ctx context.Context, root, start string, out *subtree) error {
	return filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel := imagePath(root, p)
		if err != nil {
			// WalkDir reports a failed directory listing after the directory
			// itself was visited.
			if n := len(out.entries); d != nil && n > 0 && out.entries[n-1].Path == rel {
				out.entries[n-1].Unlisted = reason(err)
				return nil
			}
			out.skipped = append(out.skipped, analysis.Skipped{Key: rel, Reason: reason(err)})
			return nil
		}
		info, err := d.Info()
		if err != nil {
			out.skipped = append(out.skipped, analysis.Skipped{Key: rel, Reason: reason(err)})
			return nil
		}
		out.entries = append(out.entries, newEntry(rel, info))
		return nil
	})
}

// imagePath maps a host path under root to its absolute path in the image.
func imagePath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

func reason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s: %v", pe.Op, pe.Err)
	}
	return err.Error()
}
