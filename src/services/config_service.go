package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/estrategista/sistema-saques/src/config"
)

type ConfigService struct {
	db *sql.DB
}

func NewConfigService(db *sql.DB) *ConfigService {
	return &ConfigService{db: db}
}

// coerceValue converts a stored text value the way clients expect: numbers
// containing a decimal point come back as float, other numerics as int, and
// everything else stays a string.
func coerceValue(valor string) any {
	if strings.Contains(valor, ".") {
		if f, err := strconv.ParseFloat(valor, 64); err == nil {
			return f
		}
	} else if i, err := strconv.Atoi(valor); err == nil {
		return i
	}
	return valor
}

// GetAll returns the full key/value map with numeric coercion. The two
// well-known keys fall back to hardcoded defaults when absent.
func (s *ConfigService) GetAll(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chave, valor FROM config`)
	if err != nil {
		return nil, fmt.Errorf("select config: %w", err)
	}
	defer rows.Close()

	cfg := map[string]any{}
	for rows.Next() {
		var chave, valor string
		if err := rows.Scan(&chave, &valor); err != nil {
			return nil, fmt.Errorf("scan config row: %w", err)
		}
		cfg[chave] = coerceValue(valor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config rows: %w", err)
	}

	if _, ok := cfg["taxaSaque"]; !ok {
		cfg["taxaSaque"] = config.DefaultTaxaSaque
	}
	if _, ok := cfg["apiUrl"]; !ok {
		cfg["apiUrl"] = config.DefaultAPIURL
	}

	return cfg, nil
}

// TaxaSaque returns the configured withdrawal fee, or the default.
func (s *ConfigService) TaxaSaque(ctx context.Context) (float64, error) {
	cfg, err := s.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	switch v := cfg["taxaSaque"].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return config.DefaultTaxaSaque, nil
	}
}

// APIURL returns the configured exchange-rate source URL, or the default.
func (s *ConfigService) APIURL(ctx context.Context) (string, error) {
	cfg, err := s.GetAll(ctx)
	if err != nil {
		return "", err
	}
	if v, ok := cfg["apiUrl"].(string); ok && v != "" {
		return v, nil
	}
	return config.DefaultAPIURL, nil
}

// SaveAll upserts every key of the map inside one transaction; any failure
// rolls all changes back. Values are stored as text.
func (s *ConfigService) SaveAll(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin config transaction: %w", err)
	}
	defer tx.Rollback()

	for chave, raw := range values {
		valor := stringifyValue(raw)

		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM config WHERE chave = ?`, chave).Scan(&id)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE config SET valor = ? WHERE chave = ?`, valor, chave); err != nil {
				return fmt.Errorf("update config %s: %w", chave, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO config (chave, valor) VALUES (?, ?)`, chave, valor); err != nil {
				return fmt.Errorf("insert config %s: %w", chave, err)
			}
		default:
			return fmt.Errorf("lookup config %s: %w", chave, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit config transaction: %w", err)
	}
	return nil
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// Whole floats from JSON decoding are stored as integers so they
		// coerce back to int on read.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", t)
	}
}
