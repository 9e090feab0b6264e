package retrymechanism

// RetryMechanism runs an operation until it succeeds or gives up
type RetryMechanism interface {
	Retry(operation func() error) error
}
