package presenter

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	presenter := New()
	assert.NotNil(t, presenter)
	assert.Equal(t, os.Stdout, presenter.output)
	assert.Equal(t, os.Stderr, presenter.errorOutput)
	assert.False(t, presenter.quiet)
}

func TestNewWithOptions(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	assert.Equal(t, &output, presenter.output)
	assert.Equal(t, &errorOutput, presenter.errorOutput)
	assert.Equal(t, ColorNever, presenter.colorMode)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name          string
		noColor       string
		skillspecColor string
		expected      ColorMode
	}{
		{"NO_COLOR set", "1", "", ColorNever},
		{"SKILLSPEC_COLOR always", "", "always", ColorAlways},
		{"SKILLSPEC_COLOR force", "", "force", ColorAlways},
		{"SKILLSPEC_COLOR never", "", "never", ColorNever},
		{"SKILLSPEC_COLOR off", "", "off", ColorNever},
		{"SKILLSPEC_COLOR auto", "", "auto", ColorAuto},
		{"default", "", "", ColorAuto},
		{"invalid color mode", "", "invalid", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("NO_COLOR")
			os.Unsetenv("SKILLSPEC_COLOR")

			if tt.noColor != "" {
				os.Setenv("NO_COLOR", tt.noColor)
			}
			if tt.skillspecColor != "" {
				os.Setenv("SKILLSPEC_COLOR", tt.skillspecColor)
			}

			result := detectColorMode()
			assert.Equal(t, tt.expected, result)

			os.Unsetenv("NO_COLOR")
			os.Unsetenv("SKILLSPEC_COLOR")
		})
	}
}

func TestError(t *testing.T) {
	var errorOutput bytes.Buffer
	presenter := NewWithOptions(nil, &errorOutput, ColorNever)

	err := errors.New("test error")
	presenter.Error(err, "test context")

	output := errorOutput.String()
	assert.Contains(t, output, "[ERROR]")
	assert.Contains(t, output, "test context")
	assert.Contains(t, output, "test error")

	errorOutput.Reset()
	presenter.Error(err, "")

	output = errorOutput.String()
	assert.Contains(t, output, "[ERROR]")
	assert.Contains(t, output, "test error")
	assert.NotContains(t, output, "test context")

	errorOutput.Reset()
	presenter.Error(nil, "context")
	assert.Empty(t, errorOutput.String())
}

func TestSuccess(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Success("Operation completed")

	result := output.String()
	assert.Contains(t, result, "✓")
	assert.Contains(t, result, "Operation completed")
}

func TestWarning(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Warning("heads up")

	result := output.String()
	assert.Contains(t, result, "⚠")
	assert.Contains(t, result, "heads up")
}

func TestSection(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Section("Schema")

	result := output.String()
	assert.Contains(t, result, "Schema")
	assert.Contains(t, result, "------")
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		verdict string
		want    string
	}{
		{"pass", "PASS"},
		{"pass_with_warnings", "PASS (with warnings)"},
		{"fail", "FAIL"},
		{"unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.verdict, func(t *testing.T) {
			var output bytes.Buffer
			presenter := NewWithOptions(&output, nil, ColorNever)

			presenter.Verdict(tt.verdict)
			assert.Contains(t, output.String(), tt.want)
		})
	}
}

func TestQuietMode(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)
	presenter.SetQuiet(true)

	presenter.Success("Operation completed")
	presenter.Warning("heads up")
	presenter.Info("details")
	presenter.Section("Schema")
	presenter.Separator()

	assert.Empty(t, output.String())
	assert.True(t, presenter.IsQuiet())
}

func TestErrorBypassesQuietMode(t *testing.T) {
	var errorOutput bytes.Buffer
	presenter := NewWithOptions(nil, &errorOutput, ColorNever)
	presenter.SetQuiet(true)

	presenter.Error(errors.New("still shown"), "")
	assert.Contains(t, errorOutput.String(), "still shown")
}
