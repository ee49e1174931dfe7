// Package shipments exposes the evaluation and mutation endpoints of the
// dispatch pipeline over HTTP.
package shipments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kmehta07/lastmile/core/explain"
	"github.com/kmehta07/lastmile/core/gate"
	"github.com/kmehta07/lastmile/core/intake"
	"github.com/kmehta07/lastmile/core/model"
	"github.com/kmehta07/lastmile/core/pipeline"
	"github.com/kmehta07/lastmile/core/store"
)

// evaluationResponse is the wire shape for an evaluation result.
type evaluationResponse struct {
	ShipmentID      string              `json:"shipment_id"`
	Decision        string              `json:"decision"`
	State           string              `json:"state"`
	Score           int                 `json:"score"`
	Bucket          string              `json:"bucket"`
	Reasons         []string            `json:"reasons,omitempty"`
	Explanation     explain.Explanation `json:"explanation"`
	ETAMultiplier   float64             `json:"eta_multiplier"`
	Forced          bool                `json:"forced"`
	WeatherDegraded bool                `json:"weather_degraded"`
}

func evaluationBody(res pipeline.Result, forced bool) evaluationResponse {
	multiplier := res.Verdicts.Weather.ETAMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return evaluationResponse{
		ShipmentID:      res.Decision.ShipmentID,
		Decision:        res.Decision.Kind.String(),
		State:           res.Decision.State.String(),
		Score:           res.Decision.RiskScore,
		Bucket:          res.Decision.Bucket.String(),
		Reasons:         res.Decision.Reasons,
		Explanation:     res.Explanation,
		ETAMultiplier:   multiplier,
		Forced:          forced,
		WeatherDegraded: res.WeatherDegraded,
	}
}

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewEvaluateHandler handles POST /api/shipments: validate the submission,
// run the full evaluation cycle and return the decision. Requests must
// include an Authorization header with "Bearer <token>" when token is
// non-empty.
func NewEvaluateHandler(mgr *pipeline.Manager, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var sub intake.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		shipment, err := intake.Validate(sub, time.Now())
		if err != nil {
			var verr *intake.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Violations})
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := mgr.Evaluate(r.Context(), shipment)
		if err != nil {
			var sferr *pipeline.ScorerFailure
			if errors.As(err, &sferr) {
				// A scorer failed; the fail-safe RESCHEDULE decision was
				// stored and is returned as the result.
				writeJSON(w, http.StatusOK, evaluationBody(res, true))
				return
			}
			var locked *gate.LockedShipmentError
			if errors.As(err, &locked) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, evaluationBody(res, false))
	})
}

// NewReevaluateHandler handles POST /api/shipments/{id}/reevaluate.
func NewReevaluateHandler(mgr *pipeline.Manager, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id := r.PathValue("id")
		res, err := mgr.Reevaluate(r.Context(), id)
		if err != nil {
			var sferr *pipeline.ScorerFailure
			if errors.As(err, &sferr) {
				writeJSON(w, http.StatusOK, evaluationBody(res, true))
				return
			}
			var locked *gate.LockedShipmentError
			if errors.As(err, &locked) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, evaluationBody(res, false))
	})
}

// overrideRequest is the wire shape for a human override.
type overrideRequest struct {
	Decision  string `json:"decision"`
	Actor     string `json:"actor"`
	Authority string `json:"authority"`
	Reason    string `json:"reason"`
}

// NewOverrideHandler handles POST /api/shipments/{id}/override.
func NewOverrideHandler(mgr *pipeline.Manager, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body overrideRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		proposed, ok := model.ParseDecisionKind(body.Decision)
		if !ok {
			http.Error(w, "unknown decision: "+body.Decision, http.StatusBadRequest)
			return
		}
		authority, ok := model.ParseAuthority(body.Authority)
		if !ok {
			http.Error(w, "unknown authority: "+body.Authority, http.StatusBadRequest)
			return
		}
		req := gate.OverrideRequest{
			ShipmentID: r.PathValue("id"),
			Proposed:   proposed,
			Actor:      body.Actor,
			Authority:  authority,
			Reason:     body.Reason,
		}
		decision, record, err := mgr.Override(r.Context(), req)
		if err != nil {
			var insufficient *gate.InsufficientAuthorityError
			if errors.As(err, &insufficient) {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}
			var missing *gate.MissingJustificationError
			if errors.As(err, &missing) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			var noop *gate.NoOpOverrideError
			if errors.As(err, &noop) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			var conflict *store.ConflictError
			if errors.As(err, &conflict) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"shipment_id": decision.ShipmentID,
			"decision":    decision.Kind.String(),
			"state":       decision.State.String(),
			"locked":      decision.Locked,
			"override_id": record.ID,
		})
	})
}

// outcomeRequest is the wire shape for a delivery outcome.
type outcomeRequest struct {
	Result string `json:"result"`
}

// NewOutcomeHandler handles POST /api/shipments/{id}/outcome.
func NewOutcomeHandler(mgr *pipeline.Manager, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body outcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		result, ok := model.ParseDeliveryResult(body.Result)
		if !ok {
			http.Error(w, "unknown result: "+body.Result, http.StatusBadRequest)
			return
		}
		outcome, err := mgr.RecordOutcome(r.Context(), r.PathValue("id"), result)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"shipment_id": outcome.ShipmentID,
			"result":      outcome.Result.String(),
			"overridden":  outcome.Overridden,
			"recorded_at": outcome.RecordedAt,
		})
	})
}
