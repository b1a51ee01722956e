package lww

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/stretchr/testify/require"
)

func version(title string, at time.Time) models.Entry {
	return models.Entry{ID: "e1", Title: title, UpdatedAt: at}
}

func TestDecide(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		local    time.Time
		incoming time.Time
		want     Outcome
	}{
		{"incoming newer", t0, t0.Add(time.Microsecond), TakeIncoming},
		{"equal", t0, t0, Same},
		{"incoming older", t0, t0.Add(-time.Second), KeepLocal},
		{"equal instant different zone", t0, t0.In(time.FixedZone("JST", 9*3600)), Same},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Decide(version("l", tt.local), version("i", tt.incoming)))
		})
	}
}

func TestResolve(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	a := version("a", t0)
	newer := version("b", t0.Add(time.Minute))
	tie := version("tie", t0)
	older := version("old", t0.Add(-time.Minute))

	require.Equal(t, newer, Resolve(a, newer))
	require.Equal(t, tie, Resolve(a, tie), "ties favour incoming")
	require.Equal(t, a, Resolve(a, older))
}

func TestResolve_Idempotent(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	pairs := [][2]models.Entry{
		{version("a", t0), version("b", t0.Add(time.Second))},
		{version("a", t0), version("b", t0)},
		{version("a", t0), version("b", t0.Add(-time.Second))},
	}
	for _, p := range pairs {
		once := Resolve(p[0], p[1])
		require.Equal(t, once, Resolve(once, p[1]))
	}
}

func TestOutcome_String(t *testing.T) {
	require.Equal(t, "keep_local", KeepLocal.String())
	require.Equal(t, "take_incoming", TakeIncoming.String())
	require.Equal(t, "same", Same.String())
	require.True(t, Same.IncomingWins())
	require.False(t, KeepLocal.IncomingWins())
}
