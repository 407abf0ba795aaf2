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

type SyncHandler struct {
	saqueService *services.SaqueService
}

func NewSyncHandler(saqueService *services.SaqueService) *SyncHandler {
	return &SyncHandler{saqueService: saqueService}
}

// HandleSync processes a bulk synchronization request from an offline
// client. Both actions upsert the payload keyed on id_interno inside one
// all-or-nothing transaction; server records absent from the payload are
// never touched. "set_saques" additionally returns the refreshed full list.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action == "" {
		utils.SendFailure(w, "Dados inválidos ou ação não especificada")
		return
	}

	switch req.Action {
	case "sync_saques":
		h.syncSaques(w, r, req)
	case "set_saques":
		h.setSaques(w, r, req)
	default:
		utils.SendFailure(w, "Ação desconhecida: "+req.Action)
	}
}

func (h *SyncHandler) syncSaques(w http.ResponseWriter, r *http.Request, req models.SyncRequest) {
	if req.Saques == nil {
		utils.SendFailure(w, "Dados de saques não fornecidos ou inválidos")
		return
	}

	processados, err := h.saqueService.BulkUpsert(r.Context(), req.Saques)
	if err != nil {
		logger.FromContext(r.Context()).Error("Sync failed, batch rolled back", "error", err)
		utils.SendEnvelope(w, models.Envelope{
			Success: false,
			Message: fmt.Sprintf("Erro durante a sincronização: %v", err),
			Stats:   &models.SyncStats{Processados: 0, Erros: 1},
		})
		return
	}

	logger.FromContext(r.Context()).Info("Sync completed", "processados", processados)
	utils.SendEnvelope(w, models.Envelope{
		Success: true,
		Message: "Sincronização concluída com sucesso",
		Stats:   &models.SyncStats{Processados: processados},
	})
}

func (h *SyncHandler) setSaques(w http.ResponseWriter, r *http.Request, req models.SyncRequest) {
	if req.Saques == nil {
		utils.SendFailure(w, "Dados de saques não fornecidos ou inválidos")
		return
	}

	processados, err := h.saqueService.BulkUpsert(r.Context(), req.Saques)
	if err != nil {
		logger.FromContext(r.Context()).Error("Set-saques failed, batch rolled back", "error", err)
		utils.SendEnvelope(w, models.Envelope{
			Success: false,
			Message: fmt.Sprintf("Erro ao atualizar saques: %v", err),
			Stats:   &models.SyncStats{Processados: 0, Erros: 1},
		})
		return
	}

	saques, err := h.saqueService.List(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error listing saques after set", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao atualizar saques: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{
		Success: true,
		Message: "Saques atualizados com sucesso",
		Stats:   &models.SyncStats{Processados: processados},
		Saques:  saques,
	})
}
