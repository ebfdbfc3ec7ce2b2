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
	}{
		{CodeValidation, http.StatusBadRequest, "validation failed"},
		{CodeUnauthorized, http.StatusUnauthorized, "authentication required"},
		{CodeForbidden, http.StatusForbidden, "access denied"},
		{CodeNotFound, http.StatusNotFound, "resource not found"},
		{CodeConflict, http.StatusConflict, "conflict detected"},
		{CodeVerification, http.StatusBadRequest, "signature verification failed"},
		{CodeInternal, http.StatusInternalServerError, "internal server error"},
		{CodeDependency, http.StatusServiceUnavailable, "dependency unavailable"},
	}

	for _, tc := range tests {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tc.publicMsg {
			t.Errorf("%s: expected public message %q, got %q", tc.code, tc.publicMsg, meta.PublicMessage)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("root cause")
	err := Wrap(CodeDependency, cause, "calling gateway")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to match cause")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("unexpected code %s", As(err).Code())
	}
}

func TestAsFindsNestedTypedError(t *testing.T) {
	inner := New(CodeNotFound, "order missing")
	outer := fmt.Errorf("handler: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected nested typed error, got %v", typed)
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("disk full"), "saving order")
	dump := Dump(err)

	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain of at least 2, got %d", len(dump.Chain))
	}
}
