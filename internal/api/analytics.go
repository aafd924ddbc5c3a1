package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/consulta/consulta/internal/config"
	"github.com/consulta/consulta/internal/insights"
	"github.com/consulta/consulta/internal/pipeline"
)

type analyticsRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

func handleAnalyticsQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Analytics == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ANALYTICS_NOT_CONFIGURED", "analytics dependencies are not configured", false, nil)
		return
	}

	var request analyticsRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid analytics request body", false, map[string]any{"details": err.Error()})
		return
	}

	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	mode := insights.ModeQuick
	if request.Mode != "" {
		parsed, err := insights.ParseMode(request.Mode)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MODE", `mode must be "quick" or "pro"`, false, nil)
			return
		}
		mode = parsed
	}

	response := deps.Analytics.Run(r.Context(), pipeline.Request{
		Question: strings.TrimSpace(request.Question),
		Mode:     mode,
	})
	writeJSON(w, http.StatusOK, response)
}

func handleAnalyticsStatus(cfg config.Config, w http.ResponseWriter, _ *http.Request) {
	warehouseConfigured := cfg.Warehouse.DSN != ""
	aiConfigured := cfg.AI.BaseURL != "" && cfg.AI.APIKey != ""
	ready := warehouseConfigured && aiConfigured

	message := "El servicio de analítica está listo para procesar consultas"
	if !ready {
		message = "El servicio de analítica no está completamente configurado. Se necesita la conexión a la base de datos y las credenciales del modelo."
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": cfg.Service.Name,
		"configuration": map[string]any{
			"warehouse": warehouseConfigured,
			"ai":        aiConfigured,
			"ready":     ready,
		},
		"message": message,
	})
}
