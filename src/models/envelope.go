package models

// Envelope is the flat response body shared by every endpoint: a boolean
// success flag plus either a message or an entity payload. The HTTP status
// is always 200; the flag is the sole error signal.
type Envelope struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	IDInterno string         `json:"id_interno,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Saque     *Saque         `json:"saque,omitempty"`
	Saques    []Saque        `json:"saques,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
	Cotacao   *Cotacao       `json:"cotacao,omitempty"`
	Stats     *SyncStats     `json:"stats,omitempty"`
}

// SyncStats reports the outcome of a bulk sync. The batch is all-or-nothing:
// Processados is the full batch size on success and zero on rollback.
type SyncStats struct {
	Processados int `json:"processados"`
	Erros       int `json:"erros"`
}

// SyncRequest is the bulk-sync request body.
type SyncRequest struct {
	Action string      `json:"action"`
	Saques []SyncSaque `json:"saques"`
}
