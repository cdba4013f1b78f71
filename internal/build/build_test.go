package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "airtable-connect/dev (+unknown)", UserAgent())
}

func TestInfo(t *testing.T) {
	info := Info()
	assert.Equal(t, ServiceName, info["service"])
	assert.Equal(t, Version, info["version"])
	assert.Contains(t, info, "git_commit")
}
