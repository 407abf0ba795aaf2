package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/models"
	"github.com/estrategista/sistema-saques/src/services"
	"github.com/estrategista/sistema-saques/src/utils"
)

type CotacaoHandler struct {
	cotacaoService *services.CotacaoService
}

func NewCotacaoHandler(cotacaoService *services.CotacaoService) *CotacaoHandler {
	return &CotacaoHandler{cotacaoService: cotacaoService}
}

// HandleGet returns the most recent stored rate, or the documented default
// when the log is empty.
func (h *CotacaoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	cotacao, err := h.cotacaoService.Latest(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error fetching cotacao", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao obter cotação: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{Success: true, Cotacao: cotacao})
}

// HandleSave appends one rate entry to the log.
func (h *CotacaoHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	var in models.CotacaoInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Valor == nil {
		utils.SendFailure(w, "Dados inválidos")
		return
	}

	cotacao, err := h.cotacaoService.Save(r.Context(), in)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error saving cotacao", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao salvar cotação: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{
		Success: true,
		Message: "Cotação salva com sucesso!",
		Cotacao: cotacao,
	})
}

// HandleRefresh fetches the current quote from the configured upstream,
// persists it and returns it. On upstream failure the last stored rate is
// returned with a message saying so.
func (h *CotacaoHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	cotacao, msg, err := h.cotacaoService.Refresh(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error refreshing cotacao", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao atualizar cotação: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{Success: true, Message: msg, Cotacao: cotacao})
}
