package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/estrategista/sistema-saques/src/models"
)

// Remote talks to the withdrawal API over HTTP. Logical failures arrive as
// HTTP 200 with success=false; Remote surfaces them as errors so callers
// can apply a uniform fallback policy.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *Remote) doGet(ctx context.Context, path string) (*models.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return r.do(req)
}

func (r *Remote) doPost(ctx context.Context, path string, body any) (*models.Envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req)
}

func (r *Remote) do(req *http.Request) (*models.Envelope, error) {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrServerUnavailable, resp.StatusCode)
	}

	var env models.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, env.Message)
	}
	return &env, nil
}

// isNotFoundRejection tells a genuine "record does not exist" answer apart
// from other rejections, using the fixed wire message.
func isNotFoundRejection(err error) bool {
	return errors.Is(err, ErrServerRejected) && strings.Contains(err.Error(), "Saque não encontrado")
}

// Ping reports whether the server and its datastore are reachable.
func (r *Remote) Ping(ctx context.Context) bool {
	_, err := r.doGet(ctx, "/api/test")
	return err == nil
}

func (r *Remote) ListSaques(ctx context.Context) ([]models.Saque, error) {
	env, err := r.doGet(ctx, "/api/saques")
	if err != nil {
		return nil, err
	}
	if env.Saques == nil {
		return []models.Saque{}, nil
	}
	return env.Saques, nil
}

func (r *Remote) GetSaque(ctx context.Context, idInterno string) (*models.Saque, error) {
	env, err := r.doGet(ctx, "/api/saque?id="+url.QueryEscape(idInterno))
	if isNotFoundRejection(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if env.Saque == nil {
		return nil, ErrNotFound
	}
	return env.Saque, nil
}

func (r *Remote) CreateSaque(ctx context.Context, in models.SaqueInput) (*models.Saque, error) {
	env, err := r.doPost(ctx, "/api/saques", in)
	if err != nil {
		return nil, err
	}

	sq := models.Saque{
		IDInterno:  env.IDInterno,
		Timestamp:  env.Timestamp,
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
	return &sq, nil
}

func (r *Remote) DeleteSaque(ctx context.Context, idInterno string) (bool, error) {
	_, err := r.doPost(ctx, "/api/saques/delete", map[string]string{"id_interno": idInterno})
	if isNotFoundRejection(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetSaques pushes the full withdrawal list through the bulk-sync endpoint.
// The server upserts by id and never deletes records absent from the list.
func (r *Remote) SetSaques(ctx context.Context, saques []models.Saque) error {
	_, err := r.doPost(ctx, "/api/sync", map[string]any{
		"action": "set_saques",
		"saques": saques,
	})
	return err
}

// SyncSaques pushes the full withdrawal list with the sync_saques action and
// returns the server's processed/error counts.
func (r *Remote) SyncSaques(ctx context.Context, saques []models.Saque) (*models.SyncStats, error) {
	env, err := r.doPost(ctx, "/api/sync", map[string]any{
		"action": "sync_saques",
		"saques": saques,
	})
	if err != nil {
		return nil, err
	}
	return env.Stats, nil
}

func (r *Remote) GetConfig(ctx context.Context) (map[string]any, error) {
	env, err := r.doGet(ctx, "/api/config")
	if err != nil {
		return nil, err
	}
	if env.Config == nil {
		return nil, fmt.Errorf("server response missing config")
	}
	return env.Config, nil
}

func (r *Remote) SaveConfig(ctx context.Context, values map[string]any) error {
	_, err := r.doPost(ctx, "/api/config", values)
	return err
}

func (r *Remote) LatestCotacao(ctx context.Context) (*models.Cotacao, error) {
	env, err := r.doGet(ctx, "/api/cotacao")
	if err != nil {
		return nil, err
	}
	if env.Cotacao == nil {
		return nil, fmt.Errorf("server response missing cotacao")
	}
	return env.Cotacao, nil
}

func (r *Remote) SaveCotacao(ctx context.Context, c models.Cotacao) error {
	_, err := r.doPost(ctx, "/api/cotacao", c)
	return err
}
