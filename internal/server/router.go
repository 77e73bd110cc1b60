// Package server exposes the knowledge base and both identification
// strategies over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/sieve/internal/logging"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/service"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *service.Service
	logger  *zap.SugaredLogger
}

// NewRouter builds the API. Paths follow the editing frontend.
func NewRouter(svc *service.Service, corsOrigin string) http.Handler {
	h := &Handler{service: svc, logger: logging.ComponentLogger("http")}
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(accessLog(h.logger))
	r.Use(cors(corsOrigin))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/classes", h.handleListClasses)
	r.Post("/classes", h.handleAddClass)
	r.Delete("/classes", h.handleDeleteClass)
	r.Delete("/classesDELETE", h.handleDeleteClass)

	r.Get("/props", h.handleListProps)
	r.Post("/props", h.handleAddProp)
	r.Delete("/props", h.handleDeleteProp)
	r.Get("/props-with-values", h.handlePropsWithValues)
	r.Post("/value-by-prop", h.handleAddValue)
	r.Delete("/value-by-prop", h.handleDeleteValue)

	r.Get("/classes-with-props", h.handleClassesWithProps)
	r.Put("/class-prop", h.handleSetClassProps)
	r.Get("/props-values-is-active", h.handleClassesWithValues)
	r.Put("/toggle-value-for-prop", h.handleToggleValues)
	r.Put("/prop-range", h.handleSetRange)

	r.Get("/check-knowledge-is-full", h.handleCompleteness)
	r.Post("/identify-class", h.handleIdentifyClass)
	r.Post("/identify", h.handleIdentifyTrace)
	r.Post("/predict-class", h.handlePredict)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "revision": h.service.Store().Revision()})
}

func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListClasses())
}

func (h *Handler) handleAddClass(w http.ResponseWriter, r *http.Request) {
	var req model.NewClass
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.AddClass(r.Context(), req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClass(r.Context(), r.URL.Query().Get("name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListProps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListProperties())
}

func (h *Handler) handleAddProp(w http.ResponseWriter, r *http.Request) {
	var req model.NewProperty
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.AddProperty(r.Context(), req.Name, req.Type); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleDeleteProp(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProperty(r.Context(), r.URL.Query().Get("name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePropsWithValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.PropertiesWithValues())
}

func (h *Handler) handleAddValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.service.AddValue(r.Context(), q.Get("prop"), q.Get("value")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleDeleteValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.service.DeleteValue(r.Context(), q.Get("prop"), q.Get("value")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClassesWithProps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ClassesWithProps())
}

func (h *Handler) handleSetClassProps(w http.ResponseWriter, r *http.Request) {
	var updates []model.ClassProp
	if !decodeJSON(w, r, &updates) {
		return
	}
	if err := h.service.SetClassProps(r.Context(), r.URL.Query().Get("class"), updates); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClassesWithValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ClassesWithValues())
}

func (h *Handler) handleToggleValues(w http.ResponseWriter, r *http.Request) {
	var req model.ToggleValues
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.ToggleValues(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetRange(w http.ResponseWriter, r *http.Request) {
	var req model.RangeUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.SetRange(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Completeness())
}

// handleIdentifyClass answers {classes} unless ?trace=true or ?capability=trace
func (h *Handler) handleIdentifyClass(w http.ResponseWriter, r *http.Request) {
	capability := model.CapabilityClassify
	q := r.URL.Query()
	if c := q.Get("capability"); c != "" {
		capability = model.Capability(strings.ToLower(c))
	}
	if trace, err := strconv.ParseBool(q.Get("trace")); err == nil && trace {
		capability = model.CapabilityTrace
	}
	h.identify(w, r, capability)
}

func (h *Handler) handleIdentifyTrace(w http.ResponseWriter, r *http.Request) {
	h.identify(w, r, model.CapabilityTrace)
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request, capability model.Capability) {
	var observations []model.Observation
	if !decodeJSON(w, r, &observations) {
		return
	}
	resp, err := h.service.Classify(r.Context(), observations, capability)
	if err != nil {
		h.writeInputError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var observations []model.Observation
	if !decodeJSON(w, r, &observations) {
		return
	}
	pred, err := h.service.Predict(r.Context(), observations)
	if err != nil {
		h.writeInputError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps the error taxonomy onto HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrIntegrity), errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case model.IsValidation(err):
		return http.StatusBadRequest
	case model.IsRemoteUnavailable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.respondError(w, r, statusFor(err), err)
}

// writeInputError is used where the request body itself is the input: an
// unknown property there is a bad request, not a missing resource.
func (h *Handler) writeInputError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if model.IsValidation(err) {
		status = http.StatusBadRequest
	}
	h.respondError(w, r, status, err)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.LoggerFromContext(r.Context(), h.logger).Errorw("request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}
