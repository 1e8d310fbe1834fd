package apperr

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

func TestCodeOf_WrappedChain(t *testing.T) {
	base := &ProviderUnavailableError{Provider: "http", Cause: fmt.Errorf("dial tcp: refused")}
	err := errors.Wrap(base, "lookup baseline")
	if got := CodeOf(err); got != CodeProviderUnavailable {
		t.Fatalf("code=%q want=%q", got, CodeProviderUnavailable)
	}
	if !IsRetryable(err) {
		t.Fatalf("provider unavailable should be retryable")
	}
}

func TestCodeOf_DeadlineIsUnavailable(t *testing.T) {
	err := fmt.Errorf("lookup: %w", context.DeadlineExceeded)
	if got := CodeOf(err); got != CodeProviderUnavailable {
		t.Fatalf("code=%q want=%q", got, CodeProviderUnavailable)
	}
}

func TestInvalidNotRetryable(t *testing.T) {
	err := Invalid("max_scenarios", "must be > 0, got %d", 0)
	if IsRetryable(err) {
		t.Fatalf("invalid input must not be retryable")
	}
	if HTTPStatus(err) != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", HTTPStatus(err))
	}
	if err.Error() != "invalid input: max_scenarios: must be > 0, got 0" {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestCodeOf_Plain(t *testing.T) {
	if CodeOf(nil) != "" {
		t.Fatalf("nil error should have empty code")
	}
	if CodeOf(fmt.Errorf("boom")) != CodeInternal {
		t.Fatalf("plain error should be internal")
	}
	if HTTPStatus(Conflict("job", "j1", "completed", "running")) != http.StatusConflict {
		t.Fatalf("conflict should map to 409")
	}
}
