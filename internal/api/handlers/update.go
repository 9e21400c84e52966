package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clementklenam/synergyalphaapi/internal/api/response"
	"github.com/clementklenam/synergyalphaapi/internal/service/updater"
)

// UpdateHandler exposes the background refresh engine
type UpdateHandler struct {
	updater *updater.Service
}

// NewUpdateHandler creates a new UpdateHandler
func NewUpdateHandler(updaterSvc *updater.Service) *UpdateHandler {
	return &UpdateHandler{updater: updaterSvc}
}

type triggerRequest struct {
	Symbols []string `json:"symbols,omitempty"`
}

// Trigger handles POST /api/v1/update/trigger. Fire-and-forget: returns 202
// immediately, the run happens in the background.
func (h *UpdateHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil {
		// An empty body means "update everything"
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	h.updater.TriggerUpdate(req.Symbols)
	response.Accepted(w, r, "update triggered")
}

// Status handles GET /api/v1/update/status
func (h *UpdateHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.Success(w, r, h.updater.Status())
}
