package updater

import (
	"context"

	"go.uber.org/zap"
)

// Updater upgrades the running integration. Update reports whether an upgrade was applied.
type Updater interface {
	Update(ctx context.Context) (bool, error)
}

// Noop never updates anything.
type Noop struct{}

func (Noop) Update(context.Context) (bool, error) {
	return false, nil
}

type logging struct {
	next Updater
	log  *zap.Logger
}

// WithLogging logs every update attempt of next.
func WithLogging(next Updater, logger *zap.Logger) Updater {
	return &logging{next: next, log: logger.Named("updater")}
}

func (u *logging) Update(ctx context.Context) (bool, error) {
	updated, err := u.next.Update(ctx)
	switch {
	case err != nil:
		u.log.Warn("self-update failed", zap.Error(err))
	case updated:
		u.log.Info("self-update applied")
	default:
		u.log.Debug("no update available")
	}
	return updated, err
}
