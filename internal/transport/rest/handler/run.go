package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"personaforge/internal/model"
	"personaforge/internal/segmentation"
	"personaforge/internal/service"
)

// RunHandler handles classification run endpoints
type RunHandler struct {
	segmentationSvc *service.SegmentationService
}

// NewRunHandler creates a new run handler
func NewRunHandler(segmentationSvc *service.SegmentationService) *RunHandler {
	return &RunHandler{segmentationSvc: segmentationSvc}
}

// Start handles POST /v1/datasets/{datasetId}/runs
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	var req service.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DatasetID = datasetID
	if req.Strategy == "" {
		req.Strategy = model.StrategyWeighted
	}

	run, err := h.segmentationSvc.StartRun(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDatasetNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrUnknownStrategy),
			errors.Is(err, segmentation.ErrNoRespondents),
			errors.Is(err, segmentation.ErrBadClusterCount):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

// List handles GET /v1/datasets/{datasetId}/runs
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	runs, err := h.segmentationSvc.ListRuns(r.Context(), datasetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// Latest handles GET /v1/datasets/{datasetId}/runs/latest
func (h *RunHandler) Latest(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	run, err := h.segmentationSvc.LatestRun(r.Context(), datasetID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Get handles GET /v1/runs/{runId}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]

	run, err := h.segmentationSvc.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Results handles GET /v1/runs/{runId}/results
func (h *RunHandler) Results(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]

	results, err := h.segmentationSvc.Results(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Profiles handles GET /v1/runs/{runId}/profiles
func (h *RunHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]

	profiles, err := h.segmentationSvc.Profiles(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if profiles == nil {
		// Interpretation still in flight
		writeJSON(w, http.StatusAccepted, map[string]string{"status": string(model.RunStatusInterpreting)})
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// Delete handles DELETE /v1/runs/{runId}
func (h *RunHandler) Delete(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]

	if err := h.segmentationSvc.DeleteRun(r.Context(), runID); err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
