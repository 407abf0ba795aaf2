package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/models"
	"github.com/estrategista/sistema-saques/src/parsers/solicitacao"
	"github.com/estrategista/sistema-saques/src/services"
	"github.com/estrategista/sistema-saques/src/utils"
)

// SolicitacaoHandler turns pasted withdrawal-request text into a prefilled
// withdrawal, and renders receipts for stored ones.
type SolicitacaoHandler struct {
	saqueService   *services.SaqueService
	configService  *services.ConfigService
	cotacaoService *services.CotacaoService
}

func NewSolicitacaoHandler(saqueService *services.SaqueService, configService *services.ConfigService, cotacaoService *services.CotacaoService) *SolicitacaoHandler {
	return &SolicitacaoHandler{
		saqueService:   saqueService,
		configService:  configService,
		cotacaoService: cotacaoService,
	}
}

// HandleProcessar parses a plain-text request body and returns the
// withdrawal it describes, with the total computed from the current rate
// and fee. Nothing is persisted; the caller reviews and then POSTs to
// /api/saques.
func (h *SolicitacaoHandler) HandleProcessar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		utils.SendFailure(w, "Dados inválidos")
		return
	}

	sol, err := solicitacao.Parse(string(body))
	if err != nil {
		var perr *solicitacao.ParseError
		if errors.As(err, &perr) {
			utils.SendFailure(w, fmt.Sprintf("Campo obrigatório não encontrado: %s", perr.Campo))
			return
		}
		utils.SendFailure(w, fmt.Sprintf("Erro ao processar solicitação: %v", err))
		return
	}

	taxa, err := h.configService.TaxaSaque(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error fetching fee for solicitacao", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao obter configurações: %v", err))
		return
	}
	cotacao, err := h.cotacaoService.Latest(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error fetching rate for solicitacao", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao obter cotação: %v", err))
		return
	}

	preview := models.Saque{
		Nome:       sol.Nome,
		CPF:        sol.CPF,
		IDExterno:  sol.IDExterno,
		Banco:      sol.Banco,
		Agencia:    sol.Agencia,
		Conta:      sol.Conta,
		Pix:        sol.Pix,
		ValorUSD:   sol.ValorUSD,
		Cotacao:    cotacao.Valor,
		TaxaSaque:  taxa,
		ValorTotal: services.CalcularValorTotal(sol.ValorUSD, cotacao.Valor, taxa),
	}

	utils.SendEnvelope(w, models.Envelope{Success: true, Saque: &preview})
}

// HandleRecibo renders the plain-text receipt for a stored withdrawal.
func (h *SolicitacaoHandler) HandleRecibo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		utils.SendFailure(w, "ID não fornecido")
		return
	}

	sq, err := h.saqueService.Get(r.Context(), id)
	if errors.Is(err, services.ErrSaqueNaoEncontrado) {
		utils.SendFailure(w, "Saque não encontrado")
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Error fetching saque for receipt", "id", id, "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao gerar recibo: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, services.GerarRecibo(*sq)); err != nil {
		logger.FromContext(r.Context()).Error("Error writing receipt", "id", id, "error", err)
	}
}
