package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/models"
	"github.com/estrategista/sistema-saques/src/security/validation"
)

var csvCabecalhos = []string{
	"DATA", "NOME", "CPF", "ID", "DADOS BANCÁRIOS",
	"VR.SOLICITADO", "VR.DOLAR", "VR.SAQUE",
}

// CSVService exports and imports withdrawals in the historical spreadsheet
// format.
type CSVService struct {
	saques *SaqueService
}

func NewCSVService(saques *SaqueService) *CSVService {
	return &CSVService{saques: saques}
}

// Export writes all withdrawals as CSV, newest first. Text fields pass
// through the formula-injection guard. Returns the number of rows written.
func (s *CSVService) Export(ctx context.Context, w io.Writer) (int, error) {
	saques, err := s.saques.List(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvCabecalhos); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for _, sq := range saques {
		data := "N/D"
		if t, err := time.Parse(config.TimestampLayout, sq.Timestamp); err == nil {
			data = t.Format("02/01/2006")
		}

		dadosBancarios := fmt.Sprintf("%s, AG: %s, CC: %s", sq.Banco, sq.Agencia, sq.Conta)
		if sq.Pix != "" {
			dadosBancarios += ", PIX: " + sq.Pix
		}

		record := []string{
			data,
			validation.SanitizeForFormulaInjection(sq.Nome),
			validation.SanitizeForFormulaInjection(sq.CPF),
			validation.SanitizeForFormulaInjection(sq.IDExterno),
			validation.SanitizeForFormulaInjection(dadosBancarios),
			formatBR(sq.ValorUSD, 2),
			formatBR(sq.Cotacao, 4),
			formatBR(sq.ValorTotal, 2),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(saques), nil
}

// Import reads rows in the export format and bulk-upserts them as new
// withdrawals. Rows that cannot be parsed are skipped. Returns the number
// of rows imported.
func (s *CSVService) Import(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	// Header row
	if _, err := cr.Read(); err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}

	var items []models.SyncSaque
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv row: %w", err)
		}
		if len(record) < len(csvCabecalhos) {
			continue
		}

		timestamp := time.Now().Format(config.TimestampLayout)
		if t, err := time.Parse("02/01/2006", strings.TrimSpace(record[0])); err == nil {
			timestamp = t.Format(config.TimestampLayout)
		}

		banco, agencia, conta, pix := parseDadosBancarios(record[4])

		sq := models.SyncSaque{Saque: models.Saque{
			IDInterno:  GenerateIDInterno(),
			Timestamp:  timestamp,
			Nome:       strings.TrimSpace(record[1]),
			CPF:        strings.TrimSpace(record[2]),
			IDExterno:  strings.TrimSpace(record[3]),
			Banco:      banco,
			Agencia:    agencia,
			Conta:      conta,
			Pix:        pix,
			ValorUSD:   parseBR(record[5]),
			Cotacao:    parseBR(record[6]),
			ValorTotal: parseBR(record[7]),
		}}
		items = append(items, sq)
	}

	if len(items) == 0 {
		return 0, nil
	}
	return s.saques.BulkUpsert(ctx, items)
}

// parseDadosBancarios splits the combined "banco, AG: x, CC: y[, PIX: z]"
// column back into its parts.
func parseDadosBancarios(s string) (banco, agencia, conta, pix string) {
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "AG:"):
			agencia = strings.TrimSpace(strings.TrimPrefix(part, "AG:"))
		case strings.HasPrefix(part, "CC:"):
			conta = strings.TrimSpace(strings.TrimPrefix(part, "CC:"))
		case strings.HasPrefix(part, "PIX:"):
			pix = strings.TrimSpace(strings.TrimPrefix(part, "PIX:"))
		case i == 0:
			banco = part
		}
	}
	return banco, agencia, conta, pix
}

func parseBR(s string) float64 {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0
	}
	return v
}
