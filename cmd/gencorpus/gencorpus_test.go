package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	v, err := parseSeed(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	v, err = parseSeed(1234)
	require.NoError(t, err)
	require.Equal(t, uint64(1234), v)

	_, err = parseSeed(-1)
	require.ErrorIs(t, err, errNegativeSeed)
}
