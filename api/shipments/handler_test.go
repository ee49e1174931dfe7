package shipments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kmehta07/lastmile/core/pipeline"
	"github.com/kmehta07/lastmile/core/scorers"
	"github.com/kmehta07/lastmile/core/scoring"
	"github.com/kmehta07/lastmile/core/weather"
	infrastore "github.com/kmehta07/lastmile/infra/store"
)

const testToken = "t0ken"

func newHandlerManager(t *testing.T) *pipeline.Manager {
	t.Helper()
	m, err := pipeline.NewManager(infrastore.NewMemoryStore(), scoring.NewStore(), scorers.DefaultReferenceData(), weather.Clear(), scoring.Config{}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func submissionBody(t *testing.T, id string) *bytes.Buffer {
	t.Helper()
	sub := map[string]any{
		"id":               id,
		"weight_kg":        3.0,
		"length_cm":        20.0,
		"width_cm":         15.0,
		"height_cm":        10.0,
		"declared_value":   500.0,
		"payment_type":     "Prepaid",
		"area_type":        "Urban",
		"road_access":      "Wide",
		"address":          "14 MG Road, near city mall, Metroville 560001",
		"destination_city": "Metroville",
		"delivery_date":    time.Now().Add(72 * time.Hour).Format("2006-01-02"),
	}
	b, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal submission: %v", err)
	}
	return bytes.NewBuffer(b)
}

func doEvaluate(t *testing.T, h http.Handler, body *bytes.Buffer, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/shipments", body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestEvaluateHandler_Success(t *testing.T) {
	h := NewEvaluateHandler(newHandlerManager(t), testToken)
	w := doEvaluate(t, h, submissionBody(t, "SHP-1"), testToken)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp evaluationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ShipmentID != "SHP-1" || resp.Decision != "DISPATCH" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.ETAMultiplier < 1 {
		t.Fatalf("eta multiplier = %v", resp.ETAMultiplier)
	}
}

func TestEvaluateHandler_Unauthorized(t *testing.T) {
	h := NewEvaluateHandler(newHandlerManager(t), testToken)
	if w := doEvaluate(t, h, submissionBody(t, "SHP-1"), ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if w := doEvaluate(t, h, submissionBody(t, "SHP-1"), "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestEvaluateHandler_NoTokenConfigured(t *testing.T) {
	h := NewEvaluateHandler(newHandlerManager(t), "")
	if w := doEvaluate(t, h, submissionBody(t, "SHP-1"), ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 without auth", w.Code)
	}
}

func TestEvaluateHandler_ValidationErrors(t *testing.T) {
	h := NewEvaluateHandler(newHandlerManager(t), testToken)
	body := bytes.NewBufferString(`{"id":"SHP-1","weight_kg":-2,"payment_type":"barter"}`)
	w := doEvaluate(t, h, body, testToken)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Every violation comes back in one response, not just the first.
	if len(resp.Errors) < 2 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
}

func TestEvaluateHandler_MalformedJSON(t *testing.T) {
	h := NewEvaluateHandler(newHandlerManager(t), testToken)
	w := doEvaluate(t, h, bytes.NewBufferString("{not json"), testToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestOverrideHandler_Flow(t *testing.T) {
	mgr := newHandlerManager(t)

	// Seed a risky decision to override: COD on a narrow old-city lane.
	sub := submissionBody(t, "SHP-9")
	var parsed map[string]any
	if err := json.Unmarshal(sub.Bytes(), &parsed); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	parsed["payment_type"] = "COD"
	parsed["area_type"] = "OldCity"
	parsed["road_access"] = "Narrow"
	parsed["weight_kg"] = 12.0
	seeded, _ := json.Marshal(parsed)
	if w := doEvaluate(t, NewEvaluateHandler(mgr, testToken), bytes.NewBuffer(seeded), testToken); w.Code != http.StatusOK {
		t.Fatalf("seed status = %d, body %s", w.Code, w.Body)
	}

	h := NewOverrideHandler(mgr, testToken)
	do := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/shipments/SHP-9/override", bytes.NewBufferString(body))
		req.SetPathValue("id", "SHP-9")
		req.Header.Set("Authorization", "Bearer "+testToken)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	// Supervisor on a High bucket: forbidden.
	if w := do(`{"decision":"DISPATCH","actor":"j.rao","authority":"supervisor","reason":"customer confirmed availability"}`); w.Code != http.StatusForbidden {
		t.Fatalf("supervisor status = %d, want 403", w.Code)
	}
	// Manager with a thin justification: rejected.
	if w := do(`{"decision":"DISPATCH","actor":"a.khan","authority":"manager","reason":"ok"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("short reason status = %d, want 400", w.Code)
	}
	// Unknown decision kind: rejected before the gate.
	if w := do(`{"decision":"MAYBE","actor":"a.khan","authority":"manager","reason":"customer confirmed availability"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown decision status = %d, want 400", w.Code)
	}

	w := do(`{"decision":"DISPATCH","actor":"a.khan","authority":"manager","reason":"customer confirmed availability"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("override status = %d, body %s", w.Code, w.Body)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["decision"] != "DISPATCH" || resp["locked"] != true {
		t.Fatalf("response = %v", resp)
	}
	if resp["override_id"] == "" {
		t.Fatal("no override id returned")
	}

	// Proposing the decision already in force: a no-op.
	if w := do(`{"decision":"DISPATCH","actor":"a.khan","authority":"manager","reason":"customer confirmed availability"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("no-op status = %d, want 400", w.Code)
	}
}

func TestOverrideHandler_UnknownShipment(t *testing.T) {
	h := NewOverrideHandler(newHandlerManager(t), testToken)
	req := httptest.NewRequest(http.MethodPost, "/api/shipments/absent/override",
		bytes.NewBufferString(`{"decision":"DISPATCH","actor":"a.khan","authority":"manager","reason":"customer confirmed availability"}`))
	req.SetPathValue("id", "absent")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestReevaluateHandler(t *testing.T) {
	mgr := newHandlerManager(t)
	if w := doEvaluate(t, NewEvaluateHandler(mgr, testToken), submissionBody(t, "SHP-5"), testToken); w.Code != http.StatusOK {
		t.Fatalf("seed status = %d", w.Code)
	}

	h := NewReevaluateHandler(mgr, testToken)
	req := httptest.NewRequest(http.MethodPost, "/api/shipments/SHP-5/reevaluate", nil)
	req.SetPathValue("id", "SHP-5")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/shipments/absent/reevaluate", nil)
	req.SetPathValue("id", "absent")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestOutcomeHandler(t *testing.T) {
	mgr := newHandlerManager(t)
	if w := doEvaluate(t, NewEvaluateHandler(mgr, testToken), submissionBody(t, "SHP-7"), testToken); w.Code != http.StatusOK {
		t.Fatalf("seed status = %d", w.Code)
	}

	h := NewOutcomeHandler(mgr, testToken)
	do := func(id, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/shipments/%s/outcome", id), bytes.NewBufferString(body))
		req.SetPathValue("id", id)
		req.Header.Set("Authorization", "Bearer "+testToken)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := do("SHP-7", `{"result":"DELIVERED"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["result"] != "Delivered" || resp["overridden"] != false {
		t.Fatalf("response = %v", resp)
	}

	if w := do("SHP-7", `{"result":"vaporized"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown result status = %d, want 400", w.Code)
	}
	if w := do("absent", `{"result":"FAILED"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown shipment status = %d, want 404", w.Code)
	}
}
