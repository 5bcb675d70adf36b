package statusview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatTimelineTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-01T00:00:05", "2024-01-01 00:00:05"},
		{"2024-01-01 00:00:05", "2024-01-01 00:00:05"},
		{"2024-01-01T00:00:05.123456", "2024-01-01 00:00:05"},
		{"2024-01-01T09:00:05+09:00", "2024-01-01 00:00:05"},
		{"2024-01-01T00:00:05Z", "2024-01-01 00:00:05"},
		{"2024-01-01T00:05", "2024-01-01 00:05:00"},
		{"2024-01-01", "2024-01-01 00:00:00"},
		{"-", InvalidDate},
		{"", InvalidDate},
		{"yesterday", InvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, FormatTimelineTime(tt.in, time.UTC))
		})
	}
}

func TestFormatAndParseTime(t *testing.T) {
	require.Equal(t, TimeEmpty, FormatTime(time.Time{}))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	formatted := FormatTime(ts)
	require.Equal(t, "2024-01-02 03:04:05", formatted)

	parsed, err := ParseTime(formatted)
	require.NoError(t, err)
	require.True(t, ts.Equal(parsed))

	zero, err := ParseTime(TimeEmpty)
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	_, err = ParseTime("not a time")
	require.Error(t, err)
}
