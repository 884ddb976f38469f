package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/manifest"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

// maxManifestSize bounds POST /api/v1/manifest bodies.
const maxManifestSize = 8 << 20

// CoordinatorHandler exposes the runtime's lifecycle operations.
type CoordinatorHandler struct {
	rt Runtime
}

// NewCoordinatorHandler creates a new coordinator handler.
func NewCoordinatorHandler(rt Runtime) *CoordinatorHandler {
	return &CoordinatorHandler{rt: rt}
}

// MessageRequest is the body of POST /api/v1/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse acknowledges a delivered message.
type MessageResponse struct {
	Message string          `json:"message"`
	Status  *runtime.Status `json:"status"`
}

// EntriesResponse lists the request keys of a partition.
type EntriesResponse struct {
	Partition string   `json:"partition"`
	Entries   []string `json:"entries"`
}

// Status handles GET /api/v1/status.
func (h *CoordinatorHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.rt.Status())
}

// PostMessage handles POST /api/v1/messages.
func (h *CoordinatorHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		BadRequest(w, "message is required")
		return
	}

	err := h.rt.PostMessage(r.Context(), req.Message)
	switch {
	case errors.Is(err, coordinator.ErrUnknownMessage):
		BadRequest(w, err.Error())
		return
	case errors.Is(err, runtime.ErrNoActiveVersion):
		Conflict(w, err.Error())
		return
	case errors.Is(err, coordinator.ErrActivationReset):
		// The version is active with reset caches; report and carry on.
		logger.WarnCtx(r.Context(), "message triggered activation reset", logger.KeyMessage, req.Message, logger.Err(err))
	case err != nil:
		logger.WarnCtx(r.Context(), "message failed", logger.KeyMessage, req.Message, logger.Err(err))
		BadGateway(w, err.Error())
		return
	}

	status := h.rt.Status()
	WriteJSONOK(w, MessageResponse{Message: req.Message, Status: &status})
}

// Reset handles POST /api/v1/reset.
func (h *CoordinatorHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.rt.Reset(r.Context()); err != nil {
		InternalServerError(w, err.Error())
		return
	}
	WriteNoContent(w)
}

// Entries handles GET /api/v1/partitions/{name}/entries.
func (h *CoordinatorHandler) Entries(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		BadRequest(w, "invalid partition name")
		return
	}

	keys, err := h.rt.Entries(r.Context(), name)
	if errors.Is(err, runtime.ErrUnknownPartition) {
		NotFound(w, err.Error())
		return
	}
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}

	resp := EntriesResponse{Partition: name, Entries: make([]string, 0, len(keys))}
	for _, k := range keys {
		resp.Entries = append(resp.Entries, k.String())
	}
	WriteJSONOK(w, resp)
}

// Deploy handles POST /api/v1/manifest. The body is a manifest document; it
// is registered as a new coordinator version.
func (h *CoordinatorHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxManifestSize))
	if err != nil {
		BadRequest(w, "failed to read manifest: "+err.Error())
		return
	}
	m, err := manifest.Parse(data)
	if err != nil {
		UnprocessableEntity(w, err.Error())
		return
	}

	info, err := h.rt.Register(r.Context(), m)
	switch {
	case errors.Is(err, coordinator.ErrActivationReset):
		logger.WarnCtx(r.Context(), "deployed version activated with reset caches", logger.Err(err))
	case err != nil:
		BadGateway(w, err.Error())
		return
	}
	WriteJSONOK(w, info)
}
