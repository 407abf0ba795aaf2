package models

// Cotacao is one entry of the append-only USD exchange-rate log.
type Cotacao struct {
	Valor     float64 `json:"valor"`
	Timestamp string  `json:"timestamp"`
	Manual    bool    `json:"manual"`
}

// CotacaoInput is the save-request body. Valor is required; the pointer
// distinguishes an absent field from an explicit zero. Timestamp defaults
// to now and Manual to false.
type CotacaoInput struct {
	Valor     *float64 `json:"valor"`
	Timestamp string   `json:"timestamp"`
	Manual    bool     `json:"manual"`
}
