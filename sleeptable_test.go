package uthread

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSleepTableAgeDecrementsAndWakes(t *testing.T) {
	st := sleepTable{1: 1, 2: 3}

	woken := st.age()
	require.Equal(t, []ThreadID{1}, woken)
	require.Equal(t, 2, st[2])
	_, stillSleeping := st[1]
	require.False(t, stillSleeping)
}

func TestSleepTableAgeMultipleWake(t *testing.T) {
	st := sleepTable{1: 1, 2: 1, 3: 2}

	woken := st.age()
	sort.Slice(woken, func(i, j int) bool { return woken[i] < woken[j] })
	require.Equal(t, []ThreadID{1, 2}, woken)
	require.Equal(t, 1, st[3])

	woken = st.age()
	require.Equal(t, []ThreadID{3}, woken)
	require.Empty(t, st)
}

func TestSleepTableAgeEmpty(t *testing.T) {
	st := sleepTable{}
	require.Empty(t, st.age())
}
