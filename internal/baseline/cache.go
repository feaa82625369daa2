package baseline

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// readPolicy is replaced in tests.
var readPolicy = os.ReadFile

// Loader loads each policy file at most once per process. Concurrent requests
// for the same file share one load. When a Verifier is set, files read from
// disk must carry a valid detached signature; embedded tables are trusted.
type Loader struct {
	verifier *Verifier
	group    singleflight.Group
	cache    sync.Map
}

func NewLoader(v *Verifier) *Loader {
	return &Loader{verifier: v}
}

// Catalog loads the catalog at path, or the embedded table fallback when path
// is empty.
func (l *Loader) Catalog(path, fallback string) (*Catalog, error) {
	v, err := l.load("catalog", path, fallback, func(raw []byte) (any, error) {
		if path == "" {
			return Embedded(fallback)
		}
		return Parse(path, bytes.NewReader(raw))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// AllowList loads a license track from path, or the embedded fallback.
func (l *Loader) AllowList(path, fallback string) (*AllowList, error) {
	v, err := l.load("allowlist", path, fallback, func(raw []byte) (any, error) {
		if path == "" {
			return EmbeddedAllowList(fallback)
		}
		return ParseAllowList(path, bytes.NewReader(raw))
	})
	if err != nil {
		return nil, err
	}
	return v.(*AllowList), nil
}

// load reads a policy file once and hands the verified bytes to parse. raw is
// nil for embedded tables.
func (l *Loader) load(kind, path, fallback string, parse func(raw []byte) (any, error)) (any, error) {
	key := kind + ":file:" + path
	if path == "" {
		key = kind + ":embed:" + fallback
	}
	if v, ok := l.cache.Load(key); ok {
		return v, nil
	}
	v, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Load(key); ok {
			return v, nil
		}
		var raw []byte
		if path != "" {
			var err error
			if raw, err = readPolicy(path); err != nil {
				return nil, fmt.Errorf("read %s %s: %w", kind, path, err)
			}
			if l.verifier != nil {
				if err := l.verifier.Verify(path, raw, SignaturePath(path)); err != nil {
					return nil, err
				}
			}
		}
		v, err := parse(raw)
		if err != nil {
			return nil, err
		}
		slog.Debug("policy loaded", "kind", kind, "source", sourceLabel(path, fallback))
		l.cache.Store(key, v)
		return v, nil
	})
	return v, err
}

func sourceLabel(path, fallback string) string {
	if path == "" {
		return fmt.Sprintf("embedded:%s", fallback)
	}
	return path
}
