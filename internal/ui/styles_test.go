package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyledTextKeepsContent(t *testing.T) {
	assert.Contains(t, Successf("Created work package #%d", 7), "Created work package #7")
	assert.Contains(t, Errorf("error: %s", "denied"), "error: denied")
	assert.Contains(t, Emph("#41"), "#41")
	assert.Contains(t, Muted("(none)"), "(none)")
}

func TestShouldPromptDisabledInCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.False(t, ShouldPrompt())
}
