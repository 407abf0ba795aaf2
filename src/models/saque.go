package models

// Saque is a recorded currency-withdrawal transaction as stored and served.
// Field names match the wire format of the endpoints and of the local cache.
type Saque struct {
	IDInterno  string  `json:"id_interno"`
	Timestamp  string  `json:"timestamp"`
	Nome       string  `json:"nome"`
	CPF        string  `json:"cpf"`
	IDExterno  string  `json:"id_externo"`
	Banco      string  `json:"banco"`
	Agencia    string  `json:"agencia"`
	Conta      string  `json:"conta"`
	Pix        string  `json:"pix"`
	ValorUSD   float64 `json:"valorUSD"`
	Cotacao    float64 `json:"cotacao"`
	ValorTotal float64 `json:"valorTotal"`
	TaxaSaque  float64 `json:"taxaSaque"`
}

// SaqueInput is the create-request body: the withdrawal fields minus the
// server-assigned internal id and timestamp. The externally supplied
// reference id travels as "id".
type SaqueInput struct {
	Nome       string  `json:"nome"`
	CPF        string  `json:"cpf"`
	IDExterno  string  `json:"id"`
	Banco      string  `json:"banco"`
	Agencia    string  `json:"agencia"`
	Conta      string  `json:"conta"`
	Pix        string  `json:"pix"`
	ValorUSD   float64 `json:"valorUSD"`
	Cotacao    float64 `json:"cotacao"`
	ValorTotal float64 `json:"valorTotal"`
	TaxaSaque  float64 `json:"taxaSaque"`
}

// SyncSaque is one item of a bulk-sync payload. Older clients sent the
// external id as "id", newer ones as "id_externo"; both are accepted.
type SyncSaque struct {
	Saque
	LegacyID string `json:"id"`
}

// ExternalID resolves the external reference id regardless of which alias
// the client used.
func (s SyncSaque) ExternalID() string {
	if s.IDExterno != "" {
		return s.IDExterno
	}
	return s.LegacyID
}
