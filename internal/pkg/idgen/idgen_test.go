package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	first := New()
	second := New()
	require.NotEqual(t, first, second)
	_, err := uuid.Parse(first)
	require.NoError(t, err)
}
