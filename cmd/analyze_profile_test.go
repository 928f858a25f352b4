package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineFlag(t *testing.T) {
	line, err := parseLineFlag("-77.04,38.89 -77.00,38.91")
	require.NoError(t, err)
	require.Equal(t, 2, line.NumCoords())
	assert.Equal(t, -77.04, line.Coord(0)[0])
	assert.Equal(t, 38.89, line.Coord(0)[1])
	assert.Equal(t, 4326, line.SRID())
}

func TestParseLineFlag_Errors(t *testing.T) {
	cases := []string{
		"",
		"-77.04,38.89",
		"-77.04 38.89",
		"abc,38.89 -77.00,38.91",
		"-77.04,xyz -77.00,38.91",
	}
	for _, input := range cases {
		_, err := parseLineFlag(input)
		assert.Error(t, err, "input %q should fail", input)
	}
}
