package utils

import (
	"encoding/json"
	"net/http"

	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/models"
)

// SendEnvelope writes the response envelope as JSON. Status is always 200;
// logical failures are signalled by the success flag alone.
func SendEnvelope(w http.ResponseWriter, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}

// SendFailure writes a {success:false, message} envelope.
func SendFailure(w http.ResponseWriter, message string) {
	SendEnvelope(w, models.Envelope{Success: false, Message: message})
}
