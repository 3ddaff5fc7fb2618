package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeDuration(t *testing.T) {
	created := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		createdAt *time.Time
		now       time.Time
		want      string
	}{
		{name: "missing createdAt", createdAt: nil, now: created, want: "0m"},
		{name: "zero createdAt", createdAt: &time.Time{}, now: created, want: "0m"},
		{name: "future createdAt clamps", createdAt: &created, now: created.Add(-time.Hour), want: "0m"},
		{name: "under a minute", createdAt: &created, now: created.Add(59 * time.Second), want: "0m"},
		{name: "minutes only", createdAt: &created, now: created.Add(45*time.Minute + 30*time.Second), want: "45m"},
		{name: "exact hour", createdAt: &created, now: created.Add(time.Hour), want: "1h 0m"},
		{name: "hours and minutes", createdAt: &created, now: created.Add(2*time.Hour + 15*time.Minute), want: "2h 15m"},
		{name: "multi day", createdAt: &created, now: created.Add(49*time.Hour + 5*time.Minute), want: "49h 5m"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ComputeDuration(tc.createdAt, tc.now))
		})
	}
}
