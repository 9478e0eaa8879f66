package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/report"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/threshold"
)

const maxBodyBytes = 1 << 20

type createProjectRequest struct {
	Name                     string  `json:"name"`
	MetalType                string  `json:"metal_type"`
	ProcessingMode           string  `json:"processing_mode"`
	FunctionalUnitMassTonnes float64 `json:"functional_unit_mass_tonnes"`
}

type stageInputsRequest struct {
	Inputs map[string]any `json:"inputs"`
}

type createScenarioRequest struct {
	Name   string         `json:"name"`
	Inputs map[string]any `json:"inputs"`
}

type stagesResponse struct {
	Stages        []*stage.Definition            `json:"stages"`
	Thresholds    map[string]threshold.Threshold `json:"thresholds"`
	FactorVersion string                         `json:"factor_version"`
	Factors       map[string]float64             `json:"factors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stagesResponse{
		Stages:        s.deps.Catalog.Definitions(),
		Thresholds:    s.deps.Thresholds.Fields(),
		FactorVersion: s.deps.Factors.Version(),
		Factors:       s.deps.Factors.All(),
	})
}

// --- Projects ---

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p := &model.Project{
		Name:                     req.Name,
		MetalType:                model.MetalType(req.MetalType),
		ProcessingMode:           model.ProcessingMode(req.ProcessingMode),
		FunctionalUnitMassTonnes: req.FunctionalUnitMassTonnes,
	}
	if err := p.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.Projects.CreateProject(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	zap.L().Info("project created", zap.String("project_id", p.ID), zap.String("metal", string(p.MetalType)))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.Projects.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Projects.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if err := s.deps.Projects.DeleteProject(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	zap.L().Info("project deleted", zap.String("project_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// --- Stages ---

func (s *Server) handleComputeStage(w http.ResponseWriter, r *http.Request) {
	st, err := stageParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req stageInputsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := s.deps.Pipeline.ComputeStage(r.Context(), chi.URLParam(r, "projectID"), st, req.Inputs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetStage(w http.ResponseWriter, r *http.Request) {
	st, err := stageParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.deps.Pipeline.GetStage(r.Context(), chi.URLParam(r, "projectID"), st)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// --- Aggregate ---

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Aggregator.Aggregate(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAggregateXLSX(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	project, err := s.deps.Projects.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.deps.Aggregator.Aggregate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	wb, err := report.BuildWorkbook(project, res)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-aggregate.xlsx"`, id))
	if err := wb.Write(w); err != nil {
		zap.L().Error("write aggregate workbook", zap.String("project_id", id), zap.Error(err))
	}
}

// --- Scenarios ---

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	st, err := stageParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sc, err := s.deps.Scenarios.Create(r.Context(), chi.URLParam(r, "projectID"), st, req.Name, req.Inputs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	st, err := stageParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.deps.Scenarios.List(r.Context(), chi.URLParam(r, "projectID"), st)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.deps.Scenarios.Get(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "scenarioID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Scenarios.Delete(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "scenarioID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func stageParam(r *http.Request) (model.StageName, error) {
	raw := chi.URLParam(r, "stage")
	st, ok := model.ParseStageName(raw)
	if !ok {
		return "", &model.ValidationError{Fields: map[string]string{"stage": fmt.Sprintf("unknown stage '%s'", raw)}}
	}
	return st, nil
}

// decodeBody reads a JSON object into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &model.ValidationError{Fields: map[string]string{"body": "invalid JSON: " + err.Error()}}
	}
	return nil
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	var ce *model.ConfigError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Fields: ve.Fields})
	case eris.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &ce):
		zap.L().Error("emission factor table is incomplete", zap.Strings("missing", ce.Missing))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: ce.Error()})
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("encode response", zap.Error(err))
	}
}
