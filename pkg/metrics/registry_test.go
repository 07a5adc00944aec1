package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	Reset()
	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
	assert.Nil(t, NewUploadMetrics())

	reg := InitRegistry()
	t.Cleanup(Reset)

	assert.True(t, IsEnabled())
	assert.Same(t, reg, GetRegistry())
}

func TestServerStopIsIdempotent(t *testing.T) {
	InitRegistry()
	t.Cleanup(Reset)

	s := NewServer(0)
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
