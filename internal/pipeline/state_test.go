package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		from  State
		trans Transition
		want  State
	}{
		{name: "classify terminal", from: StateClassify, trans: Transition{Terminal: true}, want: StateFormat},
		{name: "classify search", from: StateClassify, want: StateSearch},
		{name: "search high", from: StateSearch, trans: Transition{High: 1, Mid: 2}, want: StateExtract},
		{name: "search mid only", from: StateSearch, trans: Transition{Mid: 2}, want: StateCrawl},
		{name: "search nothing", from: StateSearch, want: StateAggregate},
		{name: "extract", from: StateExtract, want: StateAggregate},
		{name: "crawl", from: StateCrawl, want: StateAggregate},
		{name: "aggregate", from: StateAggregate, want: StateFormat},
		{name: "format", from: StateFormat, want: StateDone},
		{name: "done", from: StateDone, want: StateDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Next(tt.from, tt.trans))
		})
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "aggregate", StateAggregate.String())
	require.Equal(t, "unknown", State(42).String())
}
