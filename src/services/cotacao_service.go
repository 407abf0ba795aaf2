package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/models"
)

const quoteCacheKey = "usdbrl"

// awesomeQuote is the relevant slice of the upstream quote response. The
// source serves numbers as strings.
type awesomeQuote struct {
	USDBRL struct {
		High string `json:"high"`
	} `json:"USDBRL"`
}

type CotacaoService struct {
	db         *sql.DB
	configSvc  *ConfigService
	httpClient *http.Client
	quoteCache *gocache.Cache
}

func NewCotacaoService(db *sql.DB, configSvc *ConfigService, timeout, cacheTTL time.Duration) *CotacaoService {
	return &CotacaoService{
		db:         db,
		configSvc:  configSvc,
		httpClient: &http.Client{Timeout: timeout},
		quoteCache: gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Latest returns the most recent rate entry, ordered by timestamp with the
// row id as tiebreak. An empty log yields the documented default rather
// than an error.
func (s *CotacaoService) Latest(ctx context.Context) (*models.Cotacao, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT valor, timestamp, manual FROM cotacao ORDER BY timestamp DESC, id DESC LIMIT 1`)

	var c models.Cotacao
	var manual int
	err := row.Scan(&c.Valor, &c.Timestamp, &manual)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Cotacao{
			Valor:     config.DefaultCotacao,
			Timestamp: time.Now().Format(config.TimestampLayout),
			Manual:    false,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cotacao: %w", err)
	}
	c.Manual = manual != 0
	return &c, nil
}

// Save appends one rate entry. Entries are never deduplicated; the log is
// append-only.
func (s *CotacaoService) Save(ctx context.Context, in models.CotacaoInput) (*models.Cotacao, error) {
	if in.Valor == nil {
		return nil, fmt.Errorf("cotacao sem valor")
	}

	timestamp := in.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format(config.TimestampLayout)
	}

	manual := 0
	if in.Manual {
		manual = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cotacao (valor, timestamp, manual) VALUES (?, ?, ?)`,
		*in.Valor, timestamp, manual)
	if err != nil {
		return nil, fmt.Errorf("insert cotacao: %w", err)
	}

	// A manually entered rate supersedes whatever Refresh cached; drop the
	// cached quote so it cannot shadow the new entry within the TTL.
	if in.Manual {
		s.quoteCache.Delete(quoteCacheKey)
	}

	return &models.Cotacao{Valor: *in.Valor, Timestamp: timestamp, Manual: in.Manual}, nil
}

// Refresh fetches the current quote from the configured source, persists it
// and returns it. On upstream failure it falls back to the last stored rate
// and says so in the returned message.
func (s *CotacaoService) Refresh(ctx context.Context) (*models.Cotacao, string, error) {
	if cached, found := s.quoteCache.Get(quoteCacheKey); found {
		c := cached.(models.Cotacao)
		return &c, fmt.Sprintf("Cotação atualizada: R$ %.4f", c.Valor), nil
	}

	valor, err := s.fetchQuote(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to fetch quote from upstream, using stored rate", "error", err)
		ultima, lerr := s.Latest(ctx)
		if lerr != nil {
			return nil, "", lerr
		}
		msg := fmt.Sprintf("Não foi possível atualizar a cotação. Usando valor anterior: R$ %.4f", ultima.Valor)
		return ultima, msg, nil
	}

	saved, err := s.Save(ctx, models.CotacaoInput{Valor: &valor})
	if err != nil {
		return nil, "", err
	}

	s.quoteCache.Set(quoteCacheKey, *saved, gocache.DefaultExpiration)
	return saved, fmt.Sprintf("Cotação atualizada: R$ %.4f", valor), nil
}

func (s *CotacaoService) fetchQuote(ctx context.Context) (float64, error) {
	apiURL, err := s.configSvc.APIURL(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote source returned %s", resp.Status)
	}

	var quote awesomeQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return 0, fmt.Errorf("decode quote response: %w", err)
	}
	if quote.USDBRL.High == "" {
		return 0, fmt.Errorf("quote response missing USDBRL.high")
	}

	valor, err := strconv.ParseFloat(quote.USDBRL.High, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quote value %q: %w", quote.USDBRL.High, err)
	}
	return valor, nil
}
