package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScanPolicy(t *testing.T) {
	cases := map[string]ScanPolicy{
		"":            ScanFirst,
		"first":       ScanFirst,
		"round-robin": ScanRoundRobin,
		"rr":          ScanRoundRobin,
	}
	for in, want := range cases {
		got, err := ParseScanPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseScanPolicy("fastest")
	assert.Error(t, err)
}

func TestParseOwnership(t *testing.T) {
	for in, want := range map[string]Ownership{"owning": Owning, "dynamic": Owning, "borrowing": Borrowing, "static": Borrowing} {
		got, err := ParseOwnership(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Contains(t, []string{"owning", "borrowing"}, got.String())
	}
	_, err := ParseOwnership("shared")
	assert.Error(t, err)
}
