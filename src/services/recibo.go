package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/models"
)

// CalcularValorTotal computes the payout in local currency:
// (valor em USD × cotação) − taxa de saque, rounded to cents.
// A negative total is allowed, not clamped.
func CalcularValorTotal(valorUSD, cotacao, taxa float64) float64 {
	total := decimal.NewFromFloat(valorUSD).
		Mul(decimal.NewFromFloat(cotacao)).
		Round(2).
		Sub(decimal.NewFromFloat(taxa))
	f, _ := total.Round(2).Float64()
	return f
}

// formatBR renders a decimal with a fixed number of places and a decimal
// comma, as the receipt has always shown amounts.
func formatBR(v float64, places int32) string {
	return strings.ReplaceAll(decimal.NewFromFloat(v).StringFixed(places), ".", ",")
}

// GerarRecibo renders the fixed-format withdrawal receipt.
func GerarRecibo(s models.Saque) string {
	data := "N/D"
	hora := "N/D"
	if t, err := time.Parse(config.TimestampLayout, s.Timestamp); err == nil {
		data = t.Format("02/01/2006")
		hora = t.Format("15:04")
	}

	pixLinha := ""
	if s.Pix != "" {
		pixLinha = "\nPIX: " + s.Pix
	}

	recibo := fmt.Sprintf(`=======================================================
            COMPROVANTE DE SAQUE - #%s
=======================================================

DATA: %s
HORA: %s

NOME: %s
CPF: %s
ID: %s

VALOR SOLICITADO: USD %s
COTAÇÃO DO DÓLAR: R$ %s
TAXA DE SAQUE: R$ %s
VALOR TOTAL: R$ %s

DADOS BANCÁRIOS:
BANCO: %s
AGÊNCIA: %s
CONTA: %s%s

=======================================================
          OBRIGADO POR UTILIZAR NOSSO SISTEMA
=======================================================`,
		s.IDExterno,
		data,
		hora,
		s.Nome,
		s.CPF,
		s.IDExterno,
		formatBR(s.ValorUSD, 2),
		formatBR(s.Cotacao, 4),
		formatBR(s.TaxaSaque, 2),
		formatBR(s.ValorTotal, 2),
		s.Banco,
		s.Agencia,
		s.Conta,
		pixLinha,
	)

	return recibo
}
