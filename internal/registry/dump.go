package registry

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/spf13/afero"
	"github.com/specialistvlad/cardc/internal/ctxlog"
)

// WriteDir writes every module under dir, one directory per card, keeping
// each module's local path.
func (r *Registry) WriteDir(ctx context.Context, fs afero.Fs, dir string) (int, error) {
	logger := ctxlog.FromContext(ctx)
	modules := r.Modules()
	for _, m := range modules {
		target := path.Join(dir, url.PathEscape(m.CardURL), m.Path)
		if err := fs.MkdirAll(path.Dir(target), 0o755); err != nil {
			return 0, fmt.Errorf("write module %s: %w", m.Ref, err)
		}
		if err := afero.WriteFile(fs, target, []byte(m.Source), 0o644); err != nil {
			return 0, fmt.Errorf("write module %s: %w", m.Ref, err)
		}
		logger.Debug("Wrote module.", "module", m.Ref, "path", target)
	}
	return len(modules), nil
}
