package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/models"
	"github.com/estrategista/sistema-saques/src/services"
	"github.com/estrategista/sistema-saques/src/utils"
)

const msgMetodoNaoPermitido = "Método não permitido"

type SaqueHandler struct {
	saqueService *services.SaqueService
	csvService   *services.CSVService
}

func NewSaqueHandler(saqueService *services.SaqueService, csvService *services.CSVService) *SaqueHandler {
	return &SaqueHandler{saqueService: saqueService, csvService: csvService}
}

// HandleCreate registers a new withdrawal and returns the assigned internal
// id and server timestamp.
func (h *SaqueHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	var in models.SaqueInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendFailure(w, "Dados inválidos")
		return
	}

	idInterno, timestamp, err := h.saqueService.Create(r.Context(), in)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error registering saque", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao registrar saque: %v", err))
		return
	}

	logger.FromContext(r.Context()).Info("Saque registered", "idInterno", idInterno)
	utils.SendEnvelope(w, models.Envelope{
		Success:   true,
		IDInterno: idInterno,
		Timestamp: timestamp,
		Message:   "Saque registrado com sucesso!",
	})
}

// HandleList returns all withdrawals newest first, or a one-element list
// when the id query parameter is present.
func (h *SaqueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		sq, err := h.saqueService.Get(r.Context(), id)
		if errors.Is(err, services.ErrSaqueNaoEncontrado) {
			utils.SendFailure(w, "Saque não encontrado")
			return
		}
		if err != nil {
			logger.FromContext(r.Context()).Error("Error fetching saque", "id", id, "error", err)
			utils.SendFailure(w, fmt.Sprintf("Erro ao obter saques: %v", err))
			return
		}
		utils.SendEnvelope(w, models.Envelope{Success: true, Saques: []models.Saque{*sq}})
		return
	}

	saques, err := h.saqueService.List(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error listing saques", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao obter saques: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{Success: true, Saques: saques})
}

// HandleGet returns a single withdrawal by internal id.
func (h *SaqueHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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
		logger.FromContext(r.Context()).Error("Error fetching saque", "id", id, "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao buscar saque: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{Success: true, Saque: sq})
}

// HandleDelete removes a withdrawal by internal id.
func (h *SaqueHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	var body struct {
		IDInterno string `json:"id_interno"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IDInterno == "" {
		utils.SendFailure(w, "ID não fornecido")
		return
	}

	err := h.saqueService.Delete(r.Context(), body.IDInterno)
	if errors.Is(err, services.ErrSaqueNaoEncontrado) {
		utils.SendFailure(w, "Saque não encontrado")
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Error removing saque", "idInterno", body.IDInterno, "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao remover saque: %v", err))
		return
	}

	logger.FromContext(r.Context()).Info("Saque removed", "idInterno", body.IDInterno)
	utils.SendEnvelope(w, models.Envelope{Success: true, Message: "Saque removido com sucesso!"})
}

// HandleExportCSV streams all withdrawals as a CSV download.
func (h *SaqueHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	filename := fmt.Sprintf("saques_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	n, err := h.csvService.Export(r.Context(), w)
	if err != nil {
		// Headers are already out; all we can do is log.
		logger.FromContext(r.Context()).Error("Error exporting saques to CSV", "error", err)
		return
	}
	logger.FromContext(r.Context()).Info("Saques exported", "rows", n)
}

// HandleImportCSV bulk-imports withdrawals from a CSV body in the export format.
func (h *SaqueHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	n, err := h.csvService.Import(r.Context(), r.Body)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error importing saques from CSV", "error", err)
		utils.SendFailure(w, fmt.Sprintf("Erro ao importar saques: %v", err))
		return
	}

	utils.SendEnvelope(w, models.Envelope{
		Success: true,
		Message: fmt.Sprintf("%d saques importados com sucesso!", n),
		Stats:   &models.SyncStats{Processados: n},
	})
}
