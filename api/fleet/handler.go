package fleet

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/citydispatch/ridesim/core/engine"
	"github.com/citydispatch/ridesim/core/logger"
	"github.com/citydispatch/ridesim/core/model"
	"github.com/citydispatch/ridesim/infra/history"
	"github.com/citydispatch/ridesim/pkg/export"
)

// Handler exposes the engine operations as a JSON-over-HTTP surface for a
// rendering collaborator. The renderer polls GET /api/fleet and posts the
// ride operations; it never mutates engine state directly.
type Handler struct {
	eng   *engine.Engine
	log   logger.Logger
	rides *history.SQLiteStore
}

// NewHandler creates a Handler around the engine. rides may be nil when
// the ride ledger is disabled.
func NewHandler(eng *engine.Engine, log logger.Logger, rides *history.SQLiteStore) *Handler {
	return &Handler{eng: eng, log: log, rides: rides}
}

// Register installs all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/fleet", h.snapshot)
	mux.HandleFunc("POST /api/ride/request", h.requestRide)
	mux.HandleFunc("POST /api/ride/confirm", h.confirmBooking)
	mux.HandleFunc("POST /api/ride/cancel", h.cancelEstimate)
	mux.HandleFunc("POST /api/scene/reset", h.resetScene)
	mux.HandleFunc("POST /api/fleet/hail", h.hail)
	mux.HandleFunc("GET /api/rides", h.rideHistory)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.eng.Snapshot())
}

func (h *Handler) requestRide(w http.ResponseWriter, r *http.Request) {
	var req model.RideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The error variant (no vehicle available) is a regular estimate,
	// not an HTTP failure.
	h.writeJSON(w, http.StatusOK, h.eng.RequestRide(req))
}

func (h *Handler) confirmBooking(w http.ResponseWriter, r *http.Request) {
	bk, err := h.eng.ConfirmBooking()
	if err != nil {
		if errors.Is(err, model.ErrNoPendingEstimate) {
			h.writeError(w, http.StatusConflict, "no pending estimate")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, bk)
}

func (h *Handler) cancelEstimate(w http.ResponseWriter, r *http.Request) {
	h.eng.CancelEstimate()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.writeJSON(w, http.StatusOK, h.eng.ResetScene(req.Count))
}

func (h *Handler) hail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VehicleID string `json:"vehicle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := h.eng.Hail(req.VehicleID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown vehicle")
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

// rideHistory serves the booking ledger. Query parameters: vehicle
// filters by vehicle id, since/until bound the confirmation time
// (RFC 3339), format selects json (default) or csv.
func (h *Handler) rideHistory(w http.ResponseWriter, r *http.Request) {
	if h.rides == nil {
		h.writeError(w, http.StatusNotFound, "ride history disabled")
		return
	}
	since := time.Time{}
	until := time.Now().Add(time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid since")
			return
		}
		since = t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid until")
			return
		}
		until = t
	}
	records, err := h.rides.Query(r.URL.Query().Get("vehicle"), since, until)
	if err != nil {
		h.log.Errorf("query ride history: %v", err)
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := export.WriteCSV(w, records); err != nil {
			h.log.Errorf("write csv: %v", err)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := export.WriteJSON(w, records); err != nil {
		h.log.Errorf("write json: %v", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
