package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilities(t *testing.T) {
	caps := Capabilities{"timer", "state-stream"}
	assert.True(t, caps.Has("timer"))
	assert.False(t, caps.Has("calculator"))
	assert.Equal(t, []string{"calculator"}, caps.Missing("timer", "calculator"))
	assert.Nil(t, caps.Missing("timer"))
}
