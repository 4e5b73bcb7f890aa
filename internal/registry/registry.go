package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/cardc/internal/ctxlog"
)

// RefPrefix starts every moduleRef.
const RefPrefix = "@compiled/"

// Module is one defined module.
type Module struct {
	Ref         string
	CardURL     string
	Path        string
	ContentType string
	Source      string
}

// Registry holds every module defined during a build. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Ref returns the moduleRef of localPath within cardURL.
func Ref(cardURL, localPath string) string {
	return RefPrefix + url.PathEscape(cardURL) + "/" + strings.TrimPrefix(localPath, "/")
}

// Define stores a module and returns its moduleRef. Defining the same path
// again replaces the previous source.
func (r *Registry) Define(ctx context.Context, cardURL, localPath, contentType, source string) (string, error) {
	if cardURL == "" {
		return "", errors.New("define: card URL is required")
	}
	if localPath == "" {
		return "", fmt.Errorf("define %s: local path is required", cardURL)
	}
	if contentType == "" {
		return "", fmt.Errorf("define %s/%s: content type is required", cardURL, localPath)
	}

	ref := Ref(cardURL, localPath)
	r.mu.Lock()
	r.modules[ref] = &Module{
		Ref:         ref,
		CardURL:     cardURL,
		Path:        localPath,
		ContentType: contentType,
		Source:      source,
	}
	r.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Defined module.", "module", ref, "type", contentType, "bytes", len(source))
	return ref, nil
}

// Get returns the module stored under ref.
func (r *Registry) Get(ref string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[ref]
	return m, ok
}

// Modules returns every module sorted by ref.
func (r *Registry) Modules() []*Module {
	r.mu.RLock()
	out := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}

// Forget drops every module of cardURL.
func (r *Registry) Forget(cardURL string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for ref, m := range r.modules {
		if m.CardURL == cardURL {
			delete(r.modules, ref)
			n++
		}
	}
	return n
}

// Len reports the number of modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
