// Package recordapi is the HTTP transport of the record store. Routes are
// versioned under /v0 and mirror what the sync client speaks.
package recordapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/recordapi/respond"
	"github.com/reelfocus/reelfocus/internal/recordstore"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// RecordHandler is a thin HTTP transport over the record store.
type RecordHandler struct {
	store recordstore.Store
	log   zerolog.Logger
}

func NewRecordHandler(store recordstore.Store, log zerolog.Logger) *RecordHandler {
	return &RecordHandler{store: store, log: log}
}

func kindFromRequest(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind := model.Kind(mux.Vars(r)["kind"])
	if !recordstore.ValidKind(kind) {
		respond.WriteBadRequest(w, "unknown record kind: "+string(kind))
		return "", false
	}
	return kind, true
}

// ListRecords GET /v0/records/{kind}?parent=...&parent=...
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromRequest(w, r)
	if !ok {
		return
	}
	parents := r.URL.Query()["parent"]
	recs, err := h.store.List(r.Context(), kind, parents)
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("list records failed")
		respond.WriteInternalError(w, err.Error())
		return
	}
	if recs == nil {
		recs = []remote.Record{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"records": recs, "count": len(recs)})
}

// GetRecord GET /v0/records/{kind}/{id}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromRequest(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	rec, err := h.store.Get(r.Context(), kind, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		respond.WriteNotFound(w, "record not found")
		return
	}
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

// PutRecord PUT /v0/records/{kind}/{id}
//
// The path is authoritative for kind and id; the body supplies parent and
// payload. UpdateTime is stamped server-side.
func (h *RecordHandler) PutRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromRequest(w, r)
	if !ok {
		return
	}
	var rec remote.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	rec.Kind = kind
	rec.ID = mux.Vars(r)["id"]
	if len(rec.Payload) == 0 {
		respond.WriteBadRequest(w, "payload is required")
		return
	}

	stored, err := h.store.Upsert(r.Context(), rec)
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(kind)).Str("id", rec.ID).Msg("upsert failed")
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, stored)
}

// DeleteRecord DELETE /v0/records/{kind}/{id}
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromRequest(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	err := h.store.Delete(r.Context(), kind, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		respond.WriteNotFound(w, "record not found")
		return
	}
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health GET /v0/health
func (h *RecordHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
