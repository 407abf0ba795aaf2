// Package client is the consumer-side counterpart of the API: a Store
// interface with a remote (HTTP) and a local (file-backed cache) backend,
// plus a fallback store that prefers the server and degrades to the cache
// when it is unreachable.
package client

import (
	"context"
	"errors"

	"github.com/estrategista/sistema-saques/src/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound          = errors.New("registro não encontrado")
	ErrServerUnavailable = errors.New("servidor não disponível")

	// ErrServerRejected marks an HTTP 200 response whose envelope carried
	// success=false. The server being up but unable to serve (datastore
	// down, for instance) looks exactly like this, so the fallback treats
	// it the same as an unreachable server.
	ErrServerRejected = errors.New("servidor recusou a operação")
)

// Store is the contract every backend must satisfy. All operations take a
// context; remote calls carry an explicit timeout.
type Store interface {
	// --- Saques ---
	ListSaques(ctx context.Context) ([]models.Saque, error)
	GetSaque(ctx context.Context, idInterno string) (*models.Saque, error)
	CreateSaque(ctx context.Context, in models.SaqueInput) (*models.Saque, error)
	DeleteSaque(ctx context.Context, idInterno string) (bool, error)
	SetSaques(ctx context.Context, saques []models.Saque) error

	// --- Config ---
	GetConfig(ctx context.Context) (map[string]any, error)
	SaveConfig(ctx context.Context, values map[string]any) error

	// --- Cotação ---
	LatestCotacao(ctx context.Context) (*models.Cotacao, error)
	SaveCotacao(ctx context.Context, c models.Cotacao) error
}

var (
	_ Store = (*Remote)(nil)
	_ Store = (*Local)(nil)
	_ Store = (*Fallback)(nil)
)
