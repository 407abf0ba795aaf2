package client

import (
	"context"
	"errors"

	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/models"
)

// Fallback combines a Remote and a Local store. Reads prefer the server and
// degrade to the local cache when it is unreachable; successful remote reads
// refresh the cache along the way. Writes land in the cache first so no data
// is lost offline, then go to the server on a best-effort basis.
type Fallback struct {
	remote *Remote
	local  *Local
}

func NewFallback(remote *Remote, local *Local) *Fallback {
	return &Fallback{remote: remote, local: local}
}

// degradable reports whether a remote error means the server cannot serve
// right now: unreachable, or reachable but answering success=false (its
// datastore being down looks like the latter). Both land on the cache.
func degradable(err error) bool {
	return errors.Is(err, ErrServerUnavailable) || errors.Is(err, ErrServerRejected)
}

// Online reports whether the server currently answers the health endpoint.
func (f *Fallback) Online(ctx context.Context) bool {
	return f.remote.Ping(ctx)
}

func (f *Fallback) ListSaques(ctx context.Context) ([]models.Saque, error) {
	saques, err := f.remote.ListSaques(ctx)
	if err == nil {
		if cacheErr := f.local.SetSaques(ctx, saques); cacheErr != nil {
			logger.FromContext(ctx).Warn("failed to refresh local saque cache", "error", cacheErr)
		}
		return saques, nil
	}
	if !degradable(err) {
		return nil, err
	}
	logger.FromContext(ctx).Warn("server cannot serve, listing saques from local cache", "error", err)
	return f.local.ListSaques(ctx)
}

func (f *Fallback) GetSaque(ctx context.Context, idInterno string) (*models.Saque, error) {
	sq, err := f.remote.GetSaque(ctx, idInterno)
	if err == nil {
		return sq, nil
	}
	// A not-found answer still consults the cache: an offline-created
	// record exists only there until the next sync.
	if errors.Is(err, ErrNotFound) || degradable(err) {
		return f.local.GetSaque(ctx, idInterno)
	}
	return nil, err
}

// CreateSaque asks the server first so the record gets a server-issued id.
// Offline, the record is parked in the cache under a local id and pushed on
// the next Sync.
func (f *Fallback) CreateSaque(ctx context.Context, in models.SaqueInput) (*models.Saque, error) {
	sq, err := f.remote.CreateSaque(ctx, in)
	if err == nil {
		if _, cacheErr := f.local.CreateSaqueRecord(ctx, *sq); cacheErr != nil {
			logger.FromContext(ctx).Warn("failed to cache created saque", "error", cacheErr)
		}
		return sq, nil
	}
	if !degradable(err) {
		return nil, err
	}
	logger.FromContext(ctx).Warn("server cannot serve, creating saque locally", "error", err)
	return f.local.CreateSaque(ctx, in)
}

func (f *Fallback) DeleteSaque(ctx context.Context, idInterno string) (bool, error) {
	removed, err := f.local.DeleteSaque(ctx, idInterno)
	if err != nil {
		return false, err
	}

	remoteRemoved, err := f.remote.DeleteSaque(ctx, idInterno)
	if err != nil {
		if degradable(err) {
			logger.FromContext(ctx).Warn("server cannot serve, saque removed only locally", "id_interno", idInterno)
			return removed, nil
		}
		return removed, err
	}
	return removed || remoteRemoved, nil
}

func (f *Fallback) SetSaques(ctx context.Context, saques []models.Saque) error {
	if err := f.local.SetSaques(ctx, saques); err != nil {
		return err
	}
	if err := f.remote.SetSaques(ctx, saques); err != nil {
		if degradable(err) {
			logger.FromContext(ctx).Warn("server cannot serve, saque list replaced only locally", "error", err)
			return nil
		}
		return err
	}
	return nil
}

func (f *Fallback) GetConfig(ctx context.Context) (map[string]any, error) {
	cfg, err := f.remote.GetConfig(ctx)
	if err == nil {
		if cacheErr := f.local.SaveConfig(ctx, cfg); cacheErr != nil {
			logger.FromContext(ctx).Warn("failed to refresh local config cache", "error", cacheErr)
		}
		return cfg, nil
	}
	if !degradable(err) {
		return nil, err
	}
	return f.local.GetConfig(ctx)
}

func (f *Fallback) SaveConfig(ctx context.Context, values map[string]any) error {
	if err := f.local.SaveConfig(ctx, values); err != nil {
		return err
	}
	if err := f.remote.SaveConfig(ctx, values); err != nil {
		if degradable(err) {
			logger.FromContext(ctx).Warn("server cannot serve, config saved only locally", "error", err)
			return nil
		}
		return err
	}
	return nil
}

func (f *Fallback) LatestCotacao(ctx context.Context) (*models.Cotacao, error) {
	c, err := f.remote.LatestCotacao(ctx)
	if err == nil {
		if cacheErr := f.local.SaveCotacao(ctx, *c); cacheErr != nil {
			logger.FromContext(ctx).Warn("failed to refresh local cotacao cache", "error", cacheErr)
		}
		return c, nil
	}
	if !degradable(err) {
		return nil, err
	}
	return f.local.LatestCotacao(ctx)
}

func (f *Fallback) SaveCotacao(ctx context.Context, c models.Cotacao) error {
	if err := f.local.SaveCotacao(ctx, c); err != nil {
		return err
	}
	if err := f.remote.SaveCotacao(ctx, c); err != nil {
		if degradable(err) {
			logger.FromContext(ctx).Warn("server cannot serve, cotacao saved only locally", "error", err)
			return nil
		}
		return err
	}
	return nil
}

// Sync pushes the full local withdrawal list to the server. Records the
// server never saw (including saque_local_ ids) get inserted; the ones it
// already has are updated in place.
func (f *Fallback) Sync(ctx context.Context) (*models.SyncStats, error) {
	saques, err := f.local.ListSaques(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := f.remote.SyncSaques(ctx, saques)
	if err != nil {
		return nil, err
	}

	// Pull the merged view back so the cache reflects server state.
	merged, err := f.remote.ListSaques(ctx)
	if err == nil {
		if cacheErr := f.local.SetSaques(ctx, merged); cacheErr != nil {
			logger.FromContext(ctx).Warn("failed to refresh local cache after sync", "error", cacheErr)
		}
	}
	return stats, nil
}
