package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	require.Equal(t, 3.308, Round(3.30785, 3))
	require.Equal(t, 45.0, Round(45.0, 1))
	require.Equal(t, -1.23, Round(-1.2349, 2))
}
