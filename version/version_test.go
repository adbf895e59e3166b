package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	assert.Equal(t, "dev", GetFullVersion())

	v, c, d := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = v, c, d }()
	Version = "1.2.0"
	GitCommit = "abc123"
	BuildDate = "2026-10-01"
	assert.Equal(t, "1.2.0", GetVersion())
	assert.Equal(t, "1.2.0 (abc123, built 2026-10-01)", GetFullVersion())
}
