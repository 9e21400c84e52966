package routes

import (
	"github.com/gorilla/mux"

	"github.com/clementklenam/synergyalphaapi/internal/api/handlers"
	"github.com/clementklenam/synergyalphaapi/internal/service/updater"
)

// RegisterUpdateRoutes registers update trigger and status routes
func RegisterUpdateRoutes(router *mux.Router, updaterSvc *updater.Service) {
	updateHandler := handlers.NewUpdateHandler(updaterSvc)

	v1 := router.PathPrefix("/api/v1/update").Subrouter()

	// POST /api/v1/update/trigger - Kick off an update run
	v1.HandleFunc("/trigger", updateHandler.Trigger).Methods("POST")

	// GET /api/v1/update/status - Update loop status
	v1.HandleFunc("/status", updateHandler.Status).Methods("GET")
}
