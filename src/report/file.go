package report

import (
	"fmt"
	"os"

	"github.com/newrelic/infra-integrations-sdk/v3/log"
)

// WriteFile saves a rendered report.
func WriteFile(path string, content []byte) error {
	if path == "" {
		path = DefaultFileName
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	log.Info("Report written to %s", path)
	return nil
}
