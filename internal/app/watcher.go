package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// reloadTimeout bounds a watcher-triggered reload.
const reloadTimeout = 2 * time.Minute

// onDataChanged handles a debounced change to the name table or the bolt
// corpus file. A failed rebuild keeps serving the previous engine.
func (a *App) onDataChanged(path string) {
	a.log.Info("data file changed", zap.String("path", path))

	ctx, cancel := context.WithTimeout(a.ctx, reloadTimeout)
	defer cancel()
	if _, err := a.Reload(ctx); err != nil {
		a.log.Warn("reload after change failed, keeping previous engine",
			zap.String("path", path),
			zap.Error(err))
	}
}
