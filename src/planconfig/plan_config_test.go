package planconfig

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	sources, err := Load(filepath.Join("testdata", "plan_sources.yml"))
	require.NoError(t, err)

	require.Len(t, sources.Plans, 2)
	assert.Equal(t, "nightly", sources.Plans[0].Name)
	assert.Equal(t, "no_statements.sqlplan", sources.Plans[1].Name)
	assert.Equal(t, filepath.Join("..", "showplan", "testdata", "two_statements.sqlplan"), sources.Plans[0].File)

	require.Len(t, sources.Queries, 2)
	assert.Equal(t, "top_cpu", sources.Queries[0].Name)
	assert.Equal(t, "Sales", sources.Queries[0].Database)
	assert.Equal(t, "query_2", sources.Queries[1].Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yml"))
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		config  string
		wantErr error
	}{
		{"Empty", "", ErrNoSources},
		{"Empty lists", "plans: []\nqueries: []\n", ErrNoSources},
		{"Plan without file", "plans:\n  - name: a\n", ErrMissingFile},
		{"Query without text", "queries:\n  - name: a\n    database: Sales\n", ErrMissingQuery},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.config))
			assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("plans: [unterminated"))
	assert.Error(t, err)
}

func TestPlanQuery_Statement(t *testing.T) {
	query := PlanQuery{Query: "SELECT query_plan FROM plans"}
	assert.Equal(t, "SELECT query_plan FROM plans", query.Statement())

	query.Database = "Sales"
	assert.Equal(t, "USE Sales; SELECT query_plan FROM plans", query.Statement())
}
