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

type ConfigHandler struct {
	configService *services.ConfigService
}

func NewConfigHandler(configService *services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// HandleGet returns the full key/value map, numerically coerced, with the
// hardcoded defaults injected for absent keys.
func (h *ConfigHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	cfg, err := h.configService.GetAll(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error fetching config", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao obter configurações: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{Success: true, Config: cfg})
}

// HandleSave upserts every key of the posted flat map in one transaction.
func (h *ConfigHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil || len(values) == 0 {
		utils.SendFailure(w, "Dados inválidos")
		return
	}

	if err := h.configService.SaveAll(r.Context(), values); err != nil {
		logger.FromContext(r.Context()).Error("Error saving config", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao salvar configurações: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{Success: true, Message: "Configurações salvas com sucesso!"})
}
