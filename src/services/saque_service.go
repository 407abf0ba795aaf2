package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/models"
	"github.com/estrategista/sistema-saques/src/security/validation"
)

// ErrSaqueNaoEncontrado is returned when no withdrawal matches the internal id.
var ErrSaqueNaoEncontrado = errors.New("saque não encontrado")

type SaqueService struct {
	db *sql.DB
}

func NewSaqueService(db *sql.DB) *SaqueService {
	return &SaqueService{db: db}
}

// GenerateIDInterno builds the server-assigned internal id. It keeps the
// historical saque_<time>_<salt> shape, with a uuid-derived salt so ids stay
// unique under rapid successive calls.
func GenerateIDInterno() string {
	salt := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("saque_%d_%s", time.Now().Unix(), salt)
}

func sanitizeInput(in *models.SaqueInput) {
	in.Nome = validation.SanitizeText(in.Nome)
	in.CPF = validation.SanitizeText(in.CPF)
	in.IDExterno = validation.SanitizeText(in.IDExterno)
	in.Banco = validation.SanitizeText(in.Banco)
	in.Agencia = validation.SanitizeText(in.Agencia)
	in.Conta = validation.SanitizeText(in.Conta)
	in.Pix = validation.SanitizeText(in.Pix)
}

// Create inserts a new withdrawal and returns the assigned internal id and
// server-side creation timestamp.
func (s *SaqueService) Create(ctx context.Context, in models.SaqueInput) (string, string, error) {
	sanitizeInput(&in)

	idInterno := GenerateIDInterno()
	timestamp := time.Now().Format(config.TimestampLayout)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saques (
			id_interno, timestamp, nome, cpf, id_externo, banco, agencia, conta, pix,
			valorUSD, cotacao, valorTotal, taxaSaque
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idInterno, timestamp, in.Nome, in.CPF, in.IDExterno, in.Banco, in.Agencia,
		in.Conta, in.Pix, in.ValorUSD, in.Cotacao, in.ValorTotal, in.TaxaSaque)
	if err != nil {
		return "", "", fmt.Errorf("insert saque: %w", err)
	}

	return idInterno, timestamp, nil
}

const saqueColumns = `id_interno, timestamp, nome, cpf, id_externo, banco, agencia, conta, pix,
	valorUSD, cotacao, valorTotal, taxaSaque`

func scanSaque(row interface{ Scan(...any) error }) (models.Saque, error) {
	var sq models.Saque
	err := row.Scan(&sq.IDInterno, &sq.Timestamp, &sq.Nome, &sq.CPF, &sq.IDExterno,
		&sq.Banco, &sq.Agencia, &sq.Conta, &sq.Pix,
		&sq.ValorUSD, &sq.Cotacao, &sq.ValorTotal, &sq.TaxaSaque)
	return sq, err
}

// Get returns the withdrawal with the given internal id.
func (s *SaqueService) Get(ctx context.Context, idInterno string) (*models.Saque, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+saqueColumns+` FROM saques WHERE id_interno = ?`, idInterno)

	sq, err := scanSaque(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaqueNaoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("select saque %s: %w", idInterno, err)
	}
	return &sq, nil
}

// List returns all withdrawals ordered by creation time, most recent first.
// Duplicate timestamps fall back to insertion order.
func (s *SaqueService) List(ctx context.Context) ([]models.Saque, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+saqueColumns+` FROM saques ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select saques: %w", err)
	}
	defer rows.Close()

	saques := []models.Saque{}
	for rows.Next() {
		sq, err := scanSaque(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saque: %w", err)
		}
		saques = append(saques, sq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saques: %w", err)
	}
	return saques, nil
}

// Delete removes the withdrawal with the given internal id. It reports
// ErrSaqueNaoEncontrado when no row was affected.
func (s *SaqueService) Delete(ctx context.Context, idInterno string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saques WHERE id_interno = ?`, idInterno)
	if err != nil {
		return fmt.Errorf("delete saque %s: %w", idInterno, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saque %s: rows affected: %w", idInterno, err)
	}
	if affected == 0 {
		return ErrSaqueNaoEncontrado
	}
	return nil
}

// BulkUpsert applies a batch of withdrawals keyed on id_interno: existing
// records are updated, absent ones inserted. The whole batch runs in one
// transaction; any failure rolls everything back. Returns the number of
// items processed, which is the batch size on success and zero otherwise.
func (s *SaqueService) BulkUpsert(ctx context.Context, items []models.SyncSaque) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sync transaction: %w", err)
	}
	defer tx.Rollback()

	processados := 0
	for _, item := range items {
		if item.IDInterno == "" {
			return 0, fmt.Errorf("sync item without id_interno")
		}

		in := models.SaqueInput{
			Nome:       item.Nome,
			CPF:        item.CPF,
			IDExterno:  item.ExternalID(),
			Banco:      item.Banco,
			Agencia:    item.Agencia,
			Conta:      item.Conta,
			Pix:        item.Pix,
			ValorUSD:   item.ValorUSD,
			Cotacao:    item.Cotacao,
			ValorTotal: item.ValorTotal,
			TaxaSaque:  item.TaxaSaque,
		}
		sanitizeInput(&in)

		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM saques WHERE id_interno = ?`, item.IDInterno).Scan(&existing)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, `
				UPDATE saques SET
					nome = ?, cpf = ?, id_externo = ?, banco = ?, agencia = ?, conta = ?, pix = ?,
					valorUSD = ?, cotacao = ?, valorTotal = ?, taxaSaque = ?
				WHERE id_interno = ?`,
				in.Nome, in.CPF, in.IDExterno, in.Banco, in.Agencia, in.Conta, in.Pix,
				in.ValorUSD, in.Cotacao, in.ValorTotal, in.TaxaSaque, item.IDInterno)
			if err != nil {
				return 0, fmt.Errorf("sync update %s: %w", item.IDInterno, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			timestamp := item.Timestamp
			if timestamp == "" {
				timestamp = time.Now().Format(config.TimestampLayout)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO saques (
					id_interno, timestamp, nome, cpf, id_externo, banco, agencia, conta, pix,
					valorUSD, cotacao, valorTotal, taxaSaque
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.IDInterno, timestamp, in.Nome, in.CPF, in.IDExterno, in.Banco,
				in.Agencia, in.Conta, in.Pix, in.ValorUSD, in.Cotacao, in.ValorTotal, in.TaxaSaque)
			if err != nil {
				return 0, fmt.Errorf("sync insert %s: %w", item.IDInterno, err)
			}
		default:
			return 0, fmt.Errorf("sync lookup %s: %w", item.IDInterno, err)
		}

		processados++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sync transaction: %w", err)
	}
	return processados, nil
}
