package hydro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSamples() []Sample {
	return []Sample{
		{Draft: 2.0, TPC: 9.0, MTC: 180, LCF: -1.0},
		{Draft: 3.0, TPC: 10.0, MTC: 200, LCF: 0.0},
		{Draft: 4.0, TPC: 11.0, MTC: 220, LCF: 1.5},
	}
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(testSamples())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	lo, hi := table.Domain()
	assert.InDelta(t, 2.0, lo, 1e-12)
	assert.InDelta(t, 4.0, hi, 1e-12)
}

func TestNewTableRejectsBadInput(t *testing.T) {
	_, err := NewTable([]Sample{{Draft: 2.0, TPC: 9, MTC: 180}})
	assert.Error(t, err, "single-sample table cannot be interpolated")

	_, err = NewTable([]Sample{
		{Draft: 2.0, TPC: 9, MTC: 180},
		{Draft: 2.0, TPC: 10, MTC: 200},
	})
	assert.Error(t, err, "duplicate drafts must be rejected")

	_, err = NewTable([]Sample{
		{Draft: 2.0, TPC: 0, MTC: 180},
		{Draft: 3.0, TPC: 10, MTC: 200},
	})
	assert.Error(t, err, "non-positive TPC must be rejected")
}

func TestNewTableSortsSamples(t *testing.T) {
	samples := testSamples()
	samples[0], samples[2] = samples[2], samples[0]

	table, err := NewTable(samples)
	require.NoError(t, err)

	pt, err := table.At(2.5)
	require.NoError(t, err)
	assert.InDelta(t, 9.5, pt.TPC, 1e-12)
}

func TestAtExactSample(t *testing.T) {
	table, err := NewTable(testSamples())
	require.NoError(t, err)

	pt, err := table.At(3.0)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, pt.TPC, 1e-12)
	assert.InDelta(t, 200.0, pt.MTC, 1e-12)
	assert.InDelta(t, 0.0, pt.LCF, 1e-12)

	// Domain endpoints are valid, not out of range.
	_, err = table.At(2.0)
	assert.NoError(t, err)
	_, err = table.At(4.0)
	assert.NoError(t, err)
}

func TestAtInterpolates(t *testing.T) {
	table, err := NewTable(testSamples())
	require.NoError(t, err)

	pt, err := table.At(3.5)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, pt.Draft, 1e-12)
	assert.InDelta(t, 10.5, pt.TPC, 1e-12)
	assert.InDelta(t, 210.0, pt.MTC, 1e-12)
	assert.InDelta(t, 0.75, pt.LCF, 1e-12)
}

func TestAtOutOfRange(t *testing.T) {
	table, err := NewTable(testSamples())
	require.NoError(t, err)

	_, err = table.At(1.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	var re *RangeError
	require.True(t, errors.As(err, &re))
	assert.InDelta(t, 1.5, re.Draft, 1e-12, "error must carry the offending draft")
	assert.InDelta(t, 2.0, re.Lo, 1e-12)
	assert.InDelta(t, 4.0, re.Hi, 1e-12)

	_, err = table.At(4.2)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}
