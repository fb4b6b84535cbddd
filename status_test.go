package btr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	require.False(t, Fresh.Terminal())
	require.False(t, Running.Terminal())
	require.True(t, Success.Terminal())
	require.True(t, Failure.Terminal())
	require.True(t, Aborted.Terminal())
}

func TestValidTransition(t *testing.T) {
	assert.True(t, validTransition(Fresh, Running))
	assert.False(t, validTransition(Fresh, Success))
	assert.True(t, validTransition(Running, Running))
	assert.True(t, validTransition(Running, Success))
	assert.True(t, validTransition(Running, Failure))
	assert.True(t, validTransition(Running, Aborted))
	assert.True(t, validTransition(Success, Aborted))
	assert.False(t, validTransition(Success, Running))
	assert.False(t, validTransition(Success, Failure))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "failure", Failure.String())
	assert.Equal(t, "aborted", Aborted.String())
}
