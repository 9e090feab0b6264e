package retrymechanism

import (
	"errors"
	"testing"
)

var (
	errOperationFailed = errors.New("operation failed")
	errTryAgain        = errors.New("try again")
)

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{}
	attempts := 0

	err := retryMechanism.Retry(func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_FailureAfterDefaultRetries(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{}
	attempts := 0

	err := retryMechanism.Retry(func() error {
		attempts++
		return errOperationFailed
	})

	if !errors.Is(err, errOperationFailed) {
		t.Fatalf("expected error %v, got %v", errOperationFailed, err)
	}
	if attempts != DefaultMaxRetries {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxRetries, attempts)
	}
}

func TestRetry_CustomMaxRetries(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{MaxRetries: 5}
	attempts := 0

	_ = retryMechanism.Retry(func() error {
		attempts++
		return errOperationFailed
	})

	if attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", attempts)
	}
}

func TestRetry_SuccessOnSubsequentAttempt(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{}
	var attempts int

	err := retryMechanism.Retry(func() error {
		attempts++
		if attempts == 2 {
			return nil
		}
		return errTryAgain
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}
