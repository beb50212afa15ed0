package correlate

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExclusiveAccount/stalemac/pkg/inventory"
	"github.com/ExclusiveAccount/stalemac/pkg/report"
	"github.com/ExclusiveAccount/stalemac/pkg/sighting"
)

const host7Line = "10.0.0.1%host7%..%..%..%..%..%..%AA-BB-CC-DD-EE-FF"

var now = time.Date(2019, time.June, 1, 0, 0, 0, 0, time.Local)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func run(t *testing.T, idx *sighting.Index, hosts string) (string, Summary) {
	t.Helper()

	scanner, err := inventory.NewScanner([]string{"host13", "host42"}, quietLogger())
	require.NoError(t, err)

	var out bytes.Buffer
	w, err := report.New(report.FormatText, &out)
	require.NoError(t, err)

	summary, err := New(idx, DefaultThreshold, now, quietLogger()).Run(scanner, strings.NewReader(hosts), w)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return out.String(), summary
}

func TestTwoSightingsBelowThreshold(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20180101_000000")
	idx.Record("AABBCCDDEEFF", "20180201_000000")

	out, summary := run(t, idx, host7Line+"\n")
	assert.Empty(t, out)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 0, summary.Stale)
}

func TestTwoSightingsReported(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20180101_000000")
	idx.Record("AABBCCDDEEFF", "20190101_000000")

	out, summary := run(t, idx, host7Line+"\n")
	assert.Equal(t, "DING! 10.0.0.1 host7 AABBCCDDEEFF Months: 12\n", out)
	assert.Equal(t, 1, summary.Stale)
}

func TestSingleSightingMeasuredAgainstNow(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20180615_000000")

	out, _ := run(t, idx, host7Line+"\n")
	assert.Equal(t, "DING! 10.0.0.1 host7 AABBCCDDEEFF Months: 11\n", out)
}

func TestSingleSightingRecent(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20190101_000000")

	out, _ := run(t, idx, host7Line+"\n")
	assert.Empty(t, out)
}

func TestThresholdIsInclusive(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20181201_000000")

	out, _ := run(t, idx, host7Line+"\n")
	assert.Equal(t, "DING! 10.0.0.1 host7 AABBCCDDEEFF Months: 6\n", out)
}

func TestUnknownMACNeverReported(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("001122334455", "20100101_000000")

	out, summary := run(t, idx, host7Line+"\n")
	assert.Empty(t, out)
	assert.Equal(t, 1, summary.Unknown)
}

func TestSkippedLinesNeverReported(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20100101_000000")

	hosts := strings.Join([]string{
		"# " + host7Line,
		"",
		"10.0.0.13%host13%..%..%..%..%..%..%AA-BB-CC-DD-EE-FF",
		"10.0.0.42%host42%..%..%..%..%..%..%AA-BB-CC-DD-EE-FF",
		"10.0.0.9%short%AA-BB-CC-DD-EE-FF",
	}, "\n")

	out, summary := run(t, idx, hosts)
	assert.Empty(t, out)
	assert.Equal(t, 0, summary.Checked)
	assert.Equal(t, 1, summary.Inventory.Malformed)
	assert.Equal(t, 2, summary.Inventory.Excluded)
}

func TestBadStampSkipsHost(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "2018_1")
	idx.Record("001122334455", "20100101_000000")

	hosts := host7Line + "\n10.0.0.2%host8%..%..%..%..%..%..%00-11-22-33-44-55\n"
	out, summary := run(t, idx, hosts)
	assert.Equal(t, "DING! 10.0.0.2 host8 001122334455 Months: 113\n", out)
	assert.Equal(t, 1, summary.DateErrors)
	assert.Equal(t, 2, summary.Checked)
}

func TestEvaluateCarriesWindow(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20170101_000000")
	idx.Record("AABBCCDDEEFF", "20180101_000000")
	idx.Record("AABBCCDDEEFF", "20190101_000000")

	c := New(idx, DefaultThreshold, now, quietLogger())
	host, isStale, found, err := c.Evaluate(inventory.Record{IP: "10.0.0.1", Hostname: "host7", MAC: "AABBCCDDEEFF"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, isStale)
	assert.Equal(t, 12, host.Months)
	assert.Equal(t, uint64(3), host.Sightings)
	assert.Equal(t, []string{"20180101_000000", "20190101_000000"}, host.Dates)
}

func TestEvaluateNegativeSpanNotStale(t *testing.T) {
	idx := sighting.NewIndex()
	idx.Record("AABBCCDDEEFF", "20190101_000000")
	idx.Record("AABBCCDDEEFF", "20180101_000000")

	c := New(idx, DefaultThreshold, now, quietLogger())
	host, isStale, _, err := c.Evaluate(inventory.Record{MAC: "AABBCCDDEEFF"})
	require.NoError(t, err)
	assert.False(t, isStale)
	assert.Equal(t, -12, host.Months)
}

type emptyWindowReader struct{}

func (emptyWindowReader) Lookup(mac string) (sighting.Record, bool) {
	return sighting.Record{MAC: mac}, true
}

func TestEvaluateEmptyWindowFromOtherReader(t *testing.T) {
	c := New(emptyWindowReader{}, DefaultThreshold, now, quietLogger())
	_, isStale, found, err := c.Evaluate(inventory.Record{MAC: "AABBCCDDEEFF"})
	assert.Error(t, err)
	assert.True(t, found)
	assert.False(t, isStale)
}
