package showplan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

// AcceptedExtensions lists the file extensions a plan may be uploaded or read with
var AcceptedExtensions = []string{".sqlplan", ".xml"}

var ErrUnsupportedExtension = errors.New("unsupported plan file extension")

// CheckFileName rejects names that do not end in one of AcceptedExtensions.
func CheckFileName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return nil
		}
	}
	return fmt.Errorf("%w: %q, expected one of %s", ErrUnsupportedExtension, name, strings.Join(AcceptedExtensions, ", "))
}

// ReadFile loads a plan file from disk, fully in memory.
func ReadFile(path string) (models.PlanDocument, error) {
	if err := CheckFileName(path); err != nil {
		return models.PlanDocument{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.PlanDocument{}, fmt.Errorf("failed to read plan file: %w", err)
	}
	return models.PlanDocument{Source: path, Data: data}, nil
}
