package version

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.NotEmpty(t, info.GoVersion, "Go version should not be empty")
	assert.Contains(t, info.GoVersion, "go", "Go version should contain 'go'")
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version:   "0.3.0",
		GitCommit: "deadbee",
		BuildTime: "Mon Aug 25 10:00:00 AM UTC 2025",
		GoVersion: "go1.25.1",
	}

	result := info.String()
	expected := "Version: 0.3.0, GitCommit: deadbee, BuildTime: Mon Aug 25 10:00:00 AM UTC 2025, GoVersion: go1.25.1"
	assert.Equal(t, expected, result)
}

func TestInfo_JSON(t *testing.T) {
	info := Info{
		Version:   "0.3.0",
		GitCommit: "deadbee",
		BuildTime: "Mon Aug 25 10:00:00 AM UTC 2025",
		GoVersion: "go1.25.1",
	}

	jsonString, err := info.JSON()
	require.NoError(t, err)

	var parsed Info
	err = json.Unmarshal([]byte(jsonString), &parsed)
	require.NoError(t, err)

	assert.Equal(t, info.Version, parsed.Version)
	assert.Equal(t, info.GitCommit, parsed.GitCommit)
	assert.Equal(t, info.BuildTime, parsed.BuildTime)
	assert.Equal(t, info.GoVersion, parsed.GoVersion)

	assert.True(t, strings.Contains(jsonString, `"version"`))
	assert.True(t, strings.Contains(jsonString, `"gitCommit"`))
	assert.True(t, strings.Contains(jsonString, `"buildTime"`))
	assert.True(t, strings.Contains(jsonString, `"goVersion"`))
}
