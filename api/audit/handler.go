// Package audit exposes the append-only decision, override and outcome
// logs plus the current scoring weights over HTTP. All endpoints are
// read-only; weights change only through the learning loop.
package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/scoring"
	"github.com/kmehta07/lastmile/core/store"
)

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewDecisionLogHandler returns an HTTP handler exposing the decision audit
// log via GET /api/audit/decisions. Requests must include an Authorization
// header with "Bearer <token>" when token is non-empty.
func NewDecisionLogHandler(audit store.AuditStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q := store.DecisionQuery{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.ShipmentID = r.URL.Query().Get("shipment_id")
		records, err := audit.Decisions(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, decisionViews(records))
	})
}

// NewOverrideLogHandler returns an HTTP handler exposing the override log
// via GET /api/audit/overrides.
func NewOverrideLogHandler(audit store.AuditStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		records, err := audit.OverrideLog(r.Context(), r.URL.Query().Get("shipment_id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, overrideViews(records))
	})
}

// NewOutcomeLogHandler returns an HTTP handler exposing the outcome log via
// GET /api/audit/outcomes. The overridden query parameter filters outcomes
// by human intervention so override effectiveness can be compared.
func NewOutcomeLogHandler(audit store.AuditStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q := store.OutcomeQuery{}
		if s := r.URL.Query().Get("since"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Since = t
			}
		}
		if s := r.URL.Query().Get("until"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Until = t
			}
		}
		if s := r.URL.Query().Get("overridden"); s != "" {
			if v, err := strconv.ParseBool(s); err == nil {
				q.Overridden = &v
			}
		}
		records, err := audit.OutcomeLog(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, outcomeViews(records))
	})
}

// weightsView is the wire shape for the current weights and their history.
type weightsView struct {
	Version   int64                `json:"version"`
	UpdatedAt time.Time            `json:"updated_at"`
	Values    map[string]int       `json:"values"`
	History   []scoring.Adjustment `json:"history"`
}

// NewWeightsHandler returns an HTTP handler exposing the current scoring
// weights and their adjustment history via GET /api/audit/weights.
func NewWeightsHandler(weights *scoring.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		snap := weights.Snapshot()
		values := make(map[string]int, len(snap.Values))
		for f, v := range snap.Values {
			values[string(f)] = v
		}
		writeJSON(w, weightsView{
			Version:   snap.Version,
			UpdatedAt: snap.UpdatedAt,
			Values:    values,
			History:   weights.History(),
		})
	})
}

type decisionView struct {
	ShipmentID string    `json:"shipment_id"`
	Decision   string    `json:"decision"`
	Source     string    `json:"source"`
	State      string    `json:"state"`
	Score      int       `json:"score"`
	Bucket     string    `json:"bucket"`
	Reasons    []string  `json:"reasons,omitempty"`
	Locked     bool      `json:"locked"`
	DecidedAt  time.Time `json:"decided_at"`
}

func decisionViews(records []model.Decision) []decisionView {
	out := make([]decisionView, len(records))
	for i, d := range records {
		out[i] = decisionView{
			ShipmentID: d.ShipmentID,
			Decision:   d.Kind.String(),
			Source:     d.Source.String(),
			State:      d.State.String(),
			Score:      d.RiskScore,
			Bucket:     d.Bucket.String(),
			Reasons:    d.Reasons,
			Locked:     d.Locked,
			DecidedAt:  d.DecidedAt,
		}
	}
	return out
}

type overrideView struct {
	ID         string    `json:"id"`
	ShipmentID string    `json:"shipment_id"`
	Prior      string    `json:"prior"`
	New        string    `json:"new"`
	Actor      string    `json:"actor"`
	Authority  string    `json:"authority"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

func overrideViews(records []model.Override) []overrideView {
	out := make([]overrideView, len(records))
	for i, o := range records {
		out[i] = overrideView{
			ID:         o.ID,
			ShipmentID: o.ShipmentID,
			Prior:      o.Prior.String(),
			New:        o.New.String(),
			Actor:      o.Actor,
			Authority:  o.Authority.String(),
			Reason:     o.Reason,
			Timestamp:  o.Timestamp,
		}
	}
	return out
}

type outcomeView struct {
	ShipmentID        string    `json:"shipment_id"`
	PredictedDecision string    `json:"predicted_decision"`
	PredictedBucket   string    `json:"predicted_bucket"`
	PredictedScore    int       `json:"predicted_score"`
	Result            string    `json:"result"`
	Overridden        bool      `json:"overridden"`
	RecordedAt        time.Time `json:"recorded_at"`
}

func outcomeViews(records []model.Outcome) []outcomeView {
	out := make([]outcomeView, len(records))
	for i, o := range records {
		out[i] = outcomeView{
			ShipmentID:        o.ShipmentID,
			PredictedDecision: o.PredictedDecision.String(),
			PredictedBucket:   o.PredictedBucket.String(),
			PredictedScore:    o.PredictedScore,
			Result:            o.Result.String(),
			Overridden:        o.Overridden,
			RecordedAt:        o.RecordedAt,
		}
	}
	return out
}
