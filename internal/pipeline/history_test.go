package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Add(Turn{Query: "q1", Reply: "r1"})
	h.Add(Turn{Query: "q2", Reply: "r2"})
	h.Add(Turn{Query: "q3", Reply: "r3"})

	require.Equal(t, []Turn{{Query: "q2", Reply: "r2"}, {Query: "q3", Reply: "r3"}}, h.Snapshot())
}

func TestHistoryZeroSizeKeepsNothing(t *testing.T) {
	h := NewHistory(0)
	h.Add(Turn{Query: "q"})
	require.Empty(t, h.Snapshot())

	var nilHistory *History
	nilHistory.Add(Turn{Query: "q"})
	require.Nil(t, nilHistory.Snapshot())
}

func TestHistorySnapshotIsCopy(t *testing.T) {
	h := NewHistory(1)
	h.Add(Turn{Query: "q"})
	snap := h.Snapshot()
	snap[0].Query = "changed"
	require.Equal(t, "q", h.Snapshot()[0].Query)
}
