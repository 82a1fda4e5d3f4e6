package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/internal/interfaces/render"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// QuizHandler serves the layout, session, marker, form and analysis endpoints.
type QuizHandler struct {
	svc     quiz.Service
	layouts *anatomy.Registry
	logger  logging.Logger
}

// NewQuizHandler creates a new QuizHandler. The registry is used to draw
// session diagrams.
func NewQuizHandler(svc quiz.Service, layouts *anatomy.Registry, logger logging.Logger) *QuizHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &QuizHandler{svc: svc, layouts: layouts, logger: logger}
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Layout string `json:"layout"`
}

// PlaceMarkerRequest is the body of POST /sessions/{sessionID}/markers.
type PlaceMarkerRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// SetActiveRequest is the body of PUT /sessions/{sessionID}/active.
type SetActiveRequest struct {
	MarkerID string `json:"marker_id"`
}

// OverrideRegionRequest is the body of PUT .../markers/{markerID}/region.
type OverrideRegionRequest struct {
	RegionID string `json:"region_id"`
}

// ContinueResponse is returned by the continue endpoint for JSON clients.
type ContinueResponse struct {
	URL string `json:"url"`
}

func (h *QuizHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	fields := []logging.Field{logging.Err(err), logging.String("path", r.URL.Path)}
	if errors.HTTPStatusForCode(errors.GetCode(err)) >= http.StatusInternalServerError {
		h.logger.Error(msg, fields...)
	} else {
		h.logger.Debug(msg, fields...)
	}
	writeAppError(w, err)
}

// ListLayouts handles GET /layouts.
func (h *QuizHandler) ListLayouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Layouts(r.Context()))
}

// Classify handles GET /layouts/{layoutID}/classify?x=&y=.
func (h *QuizHandler) Classify(w http.ResponseWriter, r *http.Request) {
	x, err := parseCoordinate(r, "x")
	if err != nil {
		writeAppError(w, err)
		return
	}
	y, err := parseCoordinate(r, "y")
	if err != nil {
		writeAppError(w, err)
		return
	}

	c, err := h.svc.Classify(r.Context(), chi.URLParam(r, "layoutID"), x, y)
	if err != nil {
		h.fail(w, r, "classify failed", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Vocabulary handles GET /vocabulary.
func (h *QuizHandler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, form.AllVocabularies())
}

// CreateSession handles POST /sessions.
func (h *QuizHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	view, err := h.svc.CreateSession(r.Context(), req.Layout)
	if err != nil {
		h.fail(w, r, "create session failed", err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /sessions/{sessionID}.
func (h *QuizHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "get session failed", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (h *QuizHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.fail(w, r, "delete session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlaceMarker handles POST /sessions/{sessionID}/markers.
func (h *QuizHandler) PlaceMarker(w http.ResponseWriter, r *http.Request) {
	var req PlaceMarkerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidPoint, "x and y are required")
		return
	}

	res, err := h.svc.PlaceMarker(r.Context(), chi.URLParam(r, "sessionID"), *req.X, *req.Y)
	if err != nil {
		h.fail(w, r, "place marker failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ClearMarkers handles DELETE /sessions/{sessionID}/markers.
func (h *QuizHandler) ClearMarkers(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ClearMarkers(r.Context(), chi.URLParam(r, "sessionID"))
	h.command(w, r, "clear markers", res, err)
}

// RemoveMarker handles DELETE /sessions/{sessionID}/markers/{markerID}.
func (h *QuizHandler) RemoveMarker(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RemoveMarker(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "markerID"))
	h.command(w, r, "remove marker", res, err)
}

// SetActive handles PUT /sessions/{sessionID}/active.
func (h *QuizHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.MarkerID == "" {
		writeError(w, http.StatusBadRequest, errors.CodeInvalidParam, "marker_id is required")
		return
	}

	res, err := h.svc.SetActive(r.Context(), chi.URLParam(r, "sessionID"), req.MarkerID)
	h.command(w, r, "set active marker", res, err)
}

// OverrideRegion handles PUT /sessions/{sessionID}/markers/{markerID}/region.
func (h *QuizHandler) OverrideRegion(w http.ResponseWriter, r *http.Request) {
	var req OverrideRegionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.RegionID == "" {
		writeError(w, http.StatusBadRequest, errors.CodeInvalidParam, "region_id is required")
		return
	}

	res, err := h.svc.OverrideRegion(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "markerID"), req.RegionID)
	h.command(w, r, "override region", res, err)
}

// ToggleOption handles POST .../markers/{markerID}/options/{optionID}/toggle.
func (h *QuizHandler) ToggleOption(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ToggleOption(r.Context(),
		chi.URLParam(r, "sessionID"), chi.URLParam(r, "markerID"), chi.URLParam(r, "optionID"))
	h.command(w, r, "toggle option", res, err)
}

// command writes a marker command result. Ignored commands are still 200;
// the Applied flag tells the client nothing changed.
func (h *QuizHandler) command(w http.ResponseWriter, r *http.Request, name string, res *quiz.CommandResult, err error) {
	if err != nil {
		h.fail(w, r, name+" failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Themes handles GET /sessions/{sessionID}/themes.
func (h *QuizHandler) Themes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.svc.Themes(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "themes failed", err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

// UpdateForm handles PUT /sessions/{sessionID}/form.
func (h *QuizHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var sel form.Selection
	if err := decodeJSON(r, &sel); err != nil {
		writeAppError(w, err)
		return
	}

	upd, err := h.svc.UpdateForm(r.Context(), chi.URLParam(r, "sessionID"), sel)
	if err != nil {
		h.fail(w, r, "update form failed", err)
		return
	}
	writeJSON(w, http.StatusOK, upd)
}

// Analyze handles POST /sessions/{sessionID}/analyze.
func (h *QuizHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analyze(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "analyze failed", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// AnalyzeForm handles POST /sessions/{sessionID}/form/analyze?mode=.
func (h *QuizHandler) AnalyzeForm(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.AnalyzeForm(r.Context(), chi.URLParam(r, "sessionID"), r.URL.Query().Get("mode"))
	if err != nil {
		h.fail(w, r, "analyze form failed", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Snapshot handles GET /sessions/{sessionID}/snapshot.
func (h *QuizHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "load snapshot failed", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Continue handles GET /sessions/{sessionID}/continue. Browsers get a 302 to
// the external app; clients sending Accept: application/json get the URL.
func (h *QuizHandler) Continue(w http.ResponseWriter, r *http.Request) {
	target, err := h.svc.ContinueURL(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "continue failed", err)
		return
	}
	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, http.StatusOK, ContinueResponse{URL: target})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// InsightHTML handles GET /sessions/{sessionID}/insight.html.
func (h *QuizHandler) InsightHTML(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "load snapshot failed", err)
		return
	}
	body, err := render.InsightHTML(*snap)
	if err != nil {
		h.fail(w, r, "render insight failed", err)
		return
	}
	writeBytes(w, "text/html; charset=utf-8", body)
}

// Diagram handles GET /sessions/{sessionID}/diagram.svg.
func (h *QuizHandler) Diagram(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, "get session failed", err)
		return
	}
	layout, err := h.layouts.Get(view.LayoutID)
	if err != nil {
		h.fail(w, r, "diagram layout missing", err)
		return
	}
	body, err := render.DiagramSVG(layout, view.Markers, view.ActiveID)
	if err != nil {
		h.fail(w, r, "render diagram failed", err)
		return
	}
	writeBytes(w, "image/svg+xml", body)
}
