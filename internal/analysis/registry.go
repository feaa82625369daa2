package analysis

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry = make(map[Kind]Analyzer)
	mu       sync.RWMutex
)

func Register(a Analyzer) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[a.Kind()]; exists {
		panic(fmt.Sprintf("analyzer %s already registered", a.Kind()))
	}
	registry[a.Kind()] = a
}

func List() []Analyzer {
	mu.RLock()
	defer mu.RUnlock()
	var out []Analyzer
	for _, a := range registry {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Kind() < out[j].Kind()
	})
	return out
}

func Lookup(k Kind) (Analyzer, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := registry[k]
	if !ok {
		return nil, fmt.Errorf("%w: no analyzer registered for %q", ErrUnknownKind, k)
	}
	return a, nil
}
