package extractors

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.PageExtractor
}

// NewRegistry creates a registry holding the given extractors.
// Later extractors replace earlier ones for the same extension.
func NewRegistry(extractors ...driven.PageExtractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.PageExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e driven.PageExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// For returns the extractor for filename's extension.
func (r *Registry) For(filename string) (driven.PageExtractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("no extractor for %q: %w", ext, domain.ErrUnsupportedType)
	}
	return e, nil
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
