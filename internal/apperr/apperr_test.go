package apperr

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteValidationIncludesFieldDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	Write(rr, Validation("invalid input", FieldError{Field: "summary", Message: "must be at least 10 characters"}), false)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	var body struct {
		Success bool         `json:"success"`
		Error   string       `json:"error"`
		Details []FieldError `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v body=%s", err, rr.Body.String())
	}
	if body.Success || body.Error != "invalid input" || len(body.Details) != 1 || body.Details[0].Field != "summary" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestWriteHidesCauseOutsideDebug(t *testing.T) {
	cause := Storage("get order", errors.New("syntax error near SELECT"))

	rr := httptest.NewRecorder()
	Write(rr, cause, false)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if _, ok := body["details"]; ok {
		t.Fatalf("details must not leak in production: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	Write(rr, cause, true)
	body = map[string]any{}
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["details"] == nil {
		t.Fatalf("expected details in debug mode: %s", rr.Body.String())
	}
}

func TestStorageClassifiesConnectivity(t *testing.T) {
	if k := KindOf(Storage("ping", fmt.Errorf("dial: %w", driver.ErrBadConn))); k != KindStorageUnavailable {
		t.Fatalf("expected storage_unavailable got %s", k)
	}
	if k := KindOf(Storage("query", errors.New("no such column"))); k != KindInternal {
		t.Fatalf("expected internal got %s", k)
	}
	nf := NotFound("work order not found")
	if Storage("get", nf) != nf {
		t.Fatalf("Storage must pass through existing app errors")
	}
}

func TestCheckReportsJSONFieldNames(t *testing.T) {
	type input struct {
		Email string `json:"contact_email" validate:"required,email"`
		Count int64  `json:"equipment_id" validate:"gt=0"`
	}
	err := Check(input{Email: "nope"})
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindValidation {
		t.Fatalf("expected validation error got %v", err)
	}
	got := map[string]bool{}
	for _, f := range ae.Fields {
		got[f.Field] = true
	}
	if !got["contact_email"] || !got["equipment_id"] {
		t.Fatalf("expected both fields reported got %+v", ae.Fields)
	}
	if err := Check(input{Email: "a@b.cl", Count: 1}); err != nil {
		t.Fatalf("expected valid input got %v", err)
	}
}
