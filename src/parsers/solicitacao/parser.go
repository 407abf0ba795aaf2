package solicitacao

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Solicitacao holds the structured fields extracted from a pasted free-text
// withdrawal request.
type Solicitacao struct {
	Nome      string
	CPF       string
	IDExterno string
	Banco     string
	Agencia   string
	Conta     string
	Pix       string
	ValorUSD  float64
}

// ParseError reports which required labeled field could not be found. The
// parser never returns a partially filled Solicitacao.
type ParseError struct {
	Campo string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("solicitacao parser: campo obrigatório não encontrado: %s", e.Campo)
}

// The request format uses fixed labels, matched case-insensitively. "Valor"
// carries an explicit USD marker; the amount may use a decimal comma.
var (
	reNome    = regexp.MustCompile(`(?i)Nome:\s*([^\n]+)`)
	reCPF     = regexp.MustCompile(`(?i)CPF:\s*([^\n]+)`)
	reID      = regexp.MustCompile(`(?i)ID:\s*([^\n]+)`)
	reValor   = regexp.MustCompile(`(?i)Valor:\s*USD\s*([0-9,.]+)`)
	reBanco   = regexp.MustCompile(`(?i)Banco:\s*([^\n]+)`)
	reAgencia = regexp.MustCompile(`(?i)AG:\s*([^\n]+)`)
	reConta   = regexp.MustCompile(`(?i)CC:\s*([^\n]+)`)
	rePix     = regexp.MustCompile(`(?i)PIX:\s*([^\n]+)`)
)

func normalizeDecimalString(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return cleaned
}

// Parse extracts the labeled fields from texto. All fields except PIX are
// required; a missing label yields a *ParseError naming it.
func Parse(texto string) (*Solicitacao, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return nil, &ParseError{Campo: "texto"}
	}

	required := []struct {
		campo string
		re    *regexp.Regexp
	}{
		{"Nome", reNome},
		{"CPF", reCPF},
		{"ID", reID},
		{"Valor", reValor},
		{"Banco", reBanco},
		{"AG", reAgencia},
		{"CC", reConta},
	}

	values := make(map[string]string, len(required))
	for _, f := range required {
		m := f.re.FindStringSubmatch(texto)
		if m == nil {
			return nil, &ParseError{Campo: f.campo}
		}
		values[f.campo] = strings.TrimSpace(m[1])
	}

	valorUSD, err := strconv.ParseFloat(normalizeDecimalString(values["Valor"]), 64)
	if err != nil {
		return nil, fmt.Errorf("solicitacao parser: valor USD inválido %q: %w", values["Valor"], err)
	}

	s := &Solicitacao{
		Nome:      values["Nome"],
		CPF:       values["CPF"],
		IDExterno: values["ID"],
		Banco:     values["Banco"],
		Agencia:   values["AG"],
		Conta:     values["CC"],
		ValorUSD:  valorUSD,
	}

	if m := rePix.FindStringSubmatch(texto); m != nil {
		s.Pix = strings.TrimSpace(m[1])
	}

	return s, nil
}
