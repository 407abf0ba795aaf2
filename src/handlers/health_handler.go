package handlers

import (
	"net/http"
	"time"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/database"
	"github.com/estrategista/sistema-saques/src/logger"
	"github.com/estrategista/sistema-saques/src/models"
	"github.com/estrategista/sistema-saques/src/utils"
)

// HandleTestConnection is the connectivity probe used by clients to decide
// between server storage and the local cache.
func HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, msgMetodoNaoPermitido)
		return
	}

	if err := database.DB.PingContext(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("Database ping failed", "error", err)
		utils.SendFailure(w, "Não foi possível conectar ao banco de dados.")
		return
	}

	utils.SendEnvelope(w, models.Envelope{
		Success:   true,
		Message:   "Conexão com o banco de dados estabelecida com sucesso!",
		Timestamp: time.Now().Format(config.TimestampLayout),
	})
}
