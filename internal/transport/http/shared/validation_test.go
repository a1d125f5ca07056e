package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidatorCollectsAndSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("email", "", "email is required")
	v.Required("firstName", "Ada", "first name is required")
	v.Enum("role", "owner", []string{"admin", "super_admin"}, "role must be admin or super_admin")
	v.Add("email", "email must be lowercase")

	if !v.HasIssues() {
		t.Fatal("expected issues")
	}
	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
	if issues[0].Field != "email" || issues[2].Field != "role" {
		t.Fatalf("expected issues sorted by field, got %+v", issues)
	}
}

func TestValidatorEnumAllowsBlankAndMatches(t *testing.T) {
	v := NewValidator()
	v.Enum("role", "", []string{"admin"}, "bad role")
	v.Enum("role", "  Admin ", []string{"admin"}, "bad role")
	if v.HasIssues() {
		t.Fatalf("expected no issues, got %+v", v.Issues())
	}
}

func TestValidatorRespond(t *testing.T) {
	clean := NewValidator()
	if clean.Respond(httptest.NewRecorder(), "req-1") {
		t.Fatal("expected no response for a clean validator")
	}

	v := NewValidator()
	v.Add("decision", "decision must be approve or reject")
	rec := httptest.NewRecorder()
	if !v.Respond(rec, "req-2") {
		t.Fatal("expected a validation response")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Success || body.Error.Code != "validation_error" || body.RequestID != "req-2" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if len(body.Error.Details.Fields) != 1 || body.Error.Details.Fields[0].Field != "decision" {
		t.Fatalf("unexpected issues: %+v", body.Error.Details.Fields)
	}
}
