package project

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vk/pylaunch/internal/ctxlog"
)

// DefaultCacheSize bounds the number of folders remembered between scans.
const DefaultCacheSize = 256

type cachedAnalysis struct {
	fingerprint uint64
	descriptor  Descriptor
	ok          bool
}

// CachedAnalyzer memoises another DirAnalyzer per folder. An entry is reused
// only while the folder's fingerprint (listing, sizes, mtimes) is unchanged.
type CachedAnalyzer struct {
	next  DirAnalyzer
	cache *lru.Cache[string, cachedAnalysis]
}

// NewCachedAnalyzer wraps next with an LRU of the given size.
func NewCachedAnalyzer(next DirAnalyzer, size int) (*CachedAnalyzer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cachedAnalysis](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}
	return &CachedAnalyzer{next: next, cache: cache}, nil
}

// Analyze implements DirAnalyzer.
func (c *CachedAnalyzer) Analyze(ctx context.Context, dir string) (Descriptor, bool) {
	fp, err := fingerprint(dir)
	if err != nil {
		c.cache.Remove(dir)
		return c.next.Analyze(ctx, dir)
	}
	if hit, ok := c.cache.Get(dir); ok && hit.fingerprint == fp {
		ctxlog.FromContext(ctx).Debug("Analysis cache hit.", "dir", dir)
		return hit.descriptor, hit.ok
	}

	d, ok := c.next.Analyze(ctx, dir)
	c.cache.Add(dir, cachedAnalysis{fingerprint: fp, descriptor: d, ok: ok})
	return d, ok
}

// Len reports the number of cached folders.
func (c *CachedAnalyzer) Len() int {
	return c.cache.Len()
}

// fingerprint hashes the metadata of the files the analyzer looks at.
func fingerprint(dir string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, SourceExt) || name == ManifestName) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(h, "%s|%d|%d\n", name, info.Size(), info.ModTime().UnixNano())
	}
	return h.Sum64(), nil
}
