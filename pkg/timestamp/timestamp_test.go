package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElapsedMonths(t *testing.T) {
	now := time.Date(2019, time.June, 1, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"six months forward", "20190101_000000", "20190701_000000", 6},
		{"six months backward", "20190701_000000", "20190101_000000", -6},
		{"against now", "20180615_000000", "", 11},
		{"same month ignores day", "20190101_000000", "20190131_235959", 0},
		{"year boundary", "20181201_120000", "20190101_000000", 1},
		{"two years", "20170315_000000", "20190315_000000", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ElapsedMonths(tt.start, tt.end, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElapsedMonthsBadStamp(t *testing.T) {
	now := time.Now()

	_, err := ElapsedMonths("20190101", "", now)
	assert.ErrorIs(t, err, ErrBadStamp)

	_, err = ElapsedMonths("20190101_000000", "2019-07-01", now)
	assert.ErrorIs(t, err, ErrBadStamp)

	_, err = ElapsedMonths("20191301_000000", "", now)
	assert.ErrorIs(t, err, ErrBadStamp)
}

func TestFormatRoundTrip(t *testing.T) {
	ts := time.Date(2018, time.February, 3, 4, 5, 6, 0, time.UTC)
	assert.Equal(t, "20180203_040506", Format(ts))

	parsed, err := Parse(Format(ts))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}
