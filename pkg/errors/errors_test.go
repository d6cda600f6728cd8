package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeMethodNotAllowed, status: http.StatusMethodNotAllowed, publicMsg: "method not allowed"},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeInvalidSignature, status: http.StatusBadRequest, publicMsg: "invalid payment signature"},
		{code: CodeConfiguration, status: http.StatusInternalServerError, publicMsg: "payment service is not configured"},
		{code: CodePaymentGateway, status: http.StatusInternalServerError, publicMsg: "failed to create payment order", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestOnlyInternalCodesHideMessages(t *testing.T) {
	for _, code := range []Code{CodeInternal, CodeDependency, CodeDuplicatePayment} {
		if MetadataFor(code).ExposeMessage {
			t.Fatalf("code %s must not expose its message", code)
		}
	}
	for _, code := range []Code{CodeValidation, CodeInvalidSignature, CodePaymentGateway, CodeConfiguration} {
		if !MetadataFor(code).ExposeMessage {
			t.Fatalf("code %s should expose its message", code)
		}
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestHTTPStatusOverride(t *testing.T) {
	err := New(CodePaymentGateway, "The amount must be atleast INR 1.00")
	if err.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("expected default 500, got %d", err.HTTPStatus())
	}
	err.WithStatus(http.StatusBadRequest)
	if err.HTTPStatus() != http.StatusBadRequest {
		t.Fatalf("expected override 400, got %d", err.HTTPStatus())
	}
	err.WithStatus(42)
	if err.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("expected out-of-range override to be ignored, got %d", err.HTTPStatus())
	}
}

func TestIsMatchesWrappedCode(t *testing.T) {
	inner := New(CodeDuplicatePayment, "dup")
	outer := fmt.Errorf("insert: %w", inner)
	if !Is(outer, CodeDuplicatePayment) {
		t.Fatal("expected Is to find wrapped code")
	}
	if Is(outer, CodeValidation) {
		t.Fatal("unexpected code match")
	}
	if Is(nil, CodeValidation) {
		t.Fatal("nil error must not match")
	}
}
