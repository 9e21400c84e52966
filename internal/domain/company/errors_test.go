package company

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	wrapped := fmt.Errorf("fetch AAPL: %w", ErrCompanyNotFound)
	if !IsNotFoundError(wrapped) {
		t.Error("IsNotFoundError should match a wrapped ErrCompanyNotFound")
	}
	if IsNotFoundError(errors.New("boom")) {
		t.Error("IsNotFoundError should not match unrelated errors")
	}

	limited := fmt.Errorf("yahoo quoteSummary: %w", ErrRateLimited)
	if !IsRateLimited(limited) {
		t.Error("IsRateLimited should match a wrapped ErrRateLimited")
	}
	if IsRateLimited(ErrExternalAPI) {
		t.Error("IsRateLimited should not match other upstream errors")
	}
}
