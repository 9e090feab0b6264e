package showplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildVersion(t *testing.T) {
	testCases := []struct {
		name      string
		build     string
		want      string
		wantError bool
	}{
		{"Four part build", "16.0.1000.6", "16.0.1000", false},
		{"Three part build", "13.0.4001", "13.0.4001", false},
		{"Two part build", "12.0", "12.0.0", false},
		{"Garbage", "unknown", "", true},
		{"Empty", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			version, err := BuildVersion(tc.build)
			if tc.wantError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, version.String())
		})
	}
}

func TestHasTimeStats(t *testing.T) {
	assert.True(t, HasTimeStats("16.0.1000.6"))
	assert.True(t, HasTimeStats("13.0.4001.0"))
	assert.False(t, HasTimeStats("13.0.1601.5"))
	assert.False(t, HasTimeStats("12.0.2000.8"))
	// unknown builds are given the benefit of the doubt
	assert.True(t, HasTimeStats("not-a-build"))
}
