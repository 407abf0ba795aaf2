package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/models"
)

const localStateVersion = "1.0"

// localState mirrors the three entities in one JSON document. The key names
// are the historical cache keys, kept so a dump of the file reads the same
// as the old storage.
type localState struct {
	Saques  []models.Saque  `json:"sistemaSaques_saques"`
	Config  map[string]any  `json:"sistemaSaques_config"`
	Cotacao *models.Cotacao `json:"sistemaSaques_ultimaCotacao"`
	Versao  string          `json:"sistemaSaques_versao"`
}

// Local is a non-authoritative file-backed mirror of the server data, used
// when the server is unreachable. It owns no truth.
type Local struct {
	mu    sync.Mutex
	path  string
	state localState
}

// NewLocal opens (or initializes) the cache file at path.
func NewLocal(path string) (*Local, error) {
	l := &Local{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		l.state = defaultState()
		if err := l.persistLocked(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read local cache %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &l.state); err != nil {
			return nil, fmt.Errorf("parse local cache %s: %w", path, err)
		}
		if l.state.Config == nil {
			l.state.Config = defaultState().Config
		}
		if l.state.Saques == nil {
			l.state.Saques = []models.Saque{}
		}
	}

	return l, nil
}

func defaultState() localState {
	return localState{
		Saques: []models.Saque{},
		Config: map[string]any{
			"taxaSaque": config.DefaultTaxaSaque,
			"apiUrl":    config.DefaultAPIURL,
		},
		Cotacao: &models.Cotacao{
			Valor:     config.DefaultCotacao,
			Timestamp: time.Now().Format(config.TimestampLayout),
			Manual:    false,
		},
		Versao: localStateVersion,
	}
}

// persistLocked writes the state atomically. Callers must hold mu.
func (l *Local) persistLocked() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local cache: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create local cache dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write local cache: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace local cache: %w", err)
	}
	return nil
}

func (l *Local) ListSaques(ctx context.Context) ([]models.Saque, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Saque, len(l.state.Saques))
	copy(out, l.state.Saques)
	return out, nil
}

func (l *Local) GetSaque(ctx context.Context, idInterno string) (*models.Saque, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sq := range l.state.Saques {
		if sq.IDInterno == idInterno {
			found := sq
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// CreateSaque stores a withdrawal created while offline. Locally assigned
// ids carry the saque_local_ prefix so a later sync can tell them apart in
// logs; the server treats them like any other id. The uuid-derived salt
// keeps ids unique even when creates land in the same millisecond.
func (l *Local) CreateSaque(ctx context.Context, in models.SaqueInput) (*models.Saque, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	salt := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	sq := models.Saque{
		IDInterno:  fmt.Sprintf("saque_local_%d_%s", time.Now().UnixMilli(), salt),
		Timestamp:  time.Now().Format(config.TimestampLayout),
		Nome:       in.Nome,
		CPF:        in.CPF,
		IDExterno:  in.IDExterno,
		Banco:      in.Banco,
		Agencia:    in.Agencia,
		Conta:      in.Conta,
		Pix:        in.Pix,
		ValorUSD:   in.ValorUSD,
		Cotacao:    in.Cotacao,
		ValorTotal: in.ValorTotal,
		TaxaSaque:  in.TaxaSaque,
	}

	// Newest first, matching the server's list order.
	l.state.Saques = append([]models.Saque{sq}, l.state.Saques...)
	if err := l.persistLocked(); err != nil {
		return nil, err
	}
	return &sq, nil
}

// CreateSaqueRecord stores an already-identified withdrawal, replacing any
// cached copy with the same id.
func (l *Local) CreateSaqueRecord(ctx context.Context, sq models.Saque) (*models.Saque, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.state.Saques {
		if l.state.Saques[i].IDInterno == sq.IDInterno {
			l.state.Saques[i] = sq
			if err := l.persistLocked(); err != nil {
				return nil, err
			}
			return &sq, nil
		}
	}

	l.state.Saques = append([]models.Saque{sq}, l.state.Saques...)
	if err := l.persistLocked(); err != nil {
		return nil, err
	}
	return &sq, nil
}

func (l *Local) DeleteSaque(ctx context.Context, idInterno string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, sq := range l.state.Saques {
		if sq.IDInterno == idInterno {
			l.state.Saques = append(l.state.Saques[:i], l.state.Saques[i+1:]...)
			if err := l.persistLocked(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (l *Local) SetSaques(ctx context.Context, saques []models.Saque) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Saques = make([]models.Saque, len(saques))
	copy(l.state.Saques, saques)
	return l.persistLocked()
}

func (l *Local) GetConfig(ctx context.Context) (map[string]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := make(map[string]any, len(l.state.Config)+2)
	for k, v := range l.state.Config {
		cfg[k] = v
	}
	if _, ok := cfg["taxaSaque"]; !ok {
		cfg["taxaSaque"] = config.DefaultTaxaSaque
	}
	if _, ok := cfg["apiUrl"]; !ok {
		cfg["apiUrl"] = config.DefaultAPIURL
	}
	return cfg, nil
}

func (l *Local) SaveConfig(ctx context.Context, values map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Config == nil {
		l.state.Config = map[string]any{}
	}
	for k, v := range values {
		l.state.Config[k] = v
	}
	return l.persistLocked()
}

func (l *Local) LatestCotacao(ctx context.Context) (*models.Cotacao, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Cotacao == nil {
		c := models.Cotacao{
			Valor:     config.DefaultCotacao,
			Timestamp: time.Now().Format(config.TimestampLayout),
			Manual:    false,
		}
		return &c, nil
	}
	c := *l.state.Cotacao
	return &c, nil
}

func (l *Local) SaveCotacao(ctx context.Context, c models.Cotacao) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Cotacao = &c
	return l.persistLocked()
}
