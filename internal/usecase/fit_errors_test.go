package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitErrorLogNewestFirst(t *testing.T) {
	l := NewFitErrorLog(10)
	for i := 0; i < 3; i++ {
		l.Record(FitError{Artifact: fmt.Sprintf("a%d", i), At: time.Now().UTC()})
	}

	out := l.Recent(10)
	require.Len(t, out, 3)
	assert.Equal(t, "a2", out[0].Artifact)
	assert.Equal(t, "a0", out[2].Artifact)

	out = l.Recent(1)
	require.Len(t, out, 1)
	assert.Equal(t, "a2", out[0].Artifact)
}

func TestFitErrorLogOverwritesOldest(t *testing.T) {
	l := NewFitErrorLog(3)
	for i := 0; i < 5; i++ {
		l.Record(FitError{Artifact: fmt.Sprintf("a%d", i)})
	}

	out := l.Recent(10)
	require.Len(t, out, 3)
	assert.Equal(t, "a4", out[0].Artifact)
	assert.Equal(t, "a3", out[1].Artifact)
	assert.Equal(t, "a2", out[2].Artifact)
}

func TestFitErrorLogEmpty(t *testing.T) {
	l := NewFitErrorLog(3)
	assert.Empty(t, l.Recent(10))
}
