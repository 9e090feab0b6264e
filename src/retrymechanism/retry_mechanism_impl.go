package retrymechanism

import (
	"github.com/newrelic/infra-integrations-sdk/v3/log"
)

// DefaultMaxRetries is used when RetryMechanismImpl.MaxRetries is not set
const DefaultMaxRetries = 3

// RetryMechanismImpl retries immediately, without backoff
type RetryMechanismImpl struct {
	MaxRetries int
}

var _ RetryMechanism = (*RetryMechanismImpl)(nil)

func (r *RetryMechanismImpl) Retry(operation func() error) error {
	attempts := r.MaxRetries
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}

	var err error
	for i := 1; i <= attempts; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		log.Debug("Attempt %d of %d failed: %s", i, attempts, err)
	}
	return err
}
