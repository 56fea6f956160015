package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"personaforge/internal/service"
	"personaforge/internal/wrangle"
)

// DatasetHandler handles dataset ingestion and retrieval endpoints
type DatasetHandler struct {
	datasetSvc *service.DatasetService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(datasetSvc *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasetSvc: datasetSvc}
}

// Ingest handles POST /v1/datasets
func (h *DatasetHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req service.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	dataset, err := h.datasetSvc.Ingest(r.Context(), &req)
	if err != nil {
		if errors.Is(err, wrangle.ErrEmptyGrid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dataset)
}

// List handles GET /v1/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasetSvc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

// Get handles GET /v1/datasets/{datasetId}
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	dataset, err := h.datasetSvc.Get(r.Context(), datasetID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

// Respondents handles GET /v1/datasets/{datasetId}/respondents
func (h *DatasetHandler) Respondents(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	respondents, err := h.datasetSvc.Respondents(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, respondents)
}

// Delete handles DELETE /v1/datasets/{datasetId}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	if err := h.datasetSvc.Delete(r.Context(), datasetID); err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
