package pipeline

// State is a step of the digest state machine.
type State int

const (
	StateClassify State = iota
	StateSearch
	StateExtract
	StateCrawl
	StateAggregate
	StateFormat
	StateDone
)

var stateNames = [...]string{
	StateClassify:  "classify",
	StateSearch:    "search",
	StateExtract:   "extract",
	StateCrawl:     "crawl",
	StateAggregate: "aggregate",
	StateFormat:    "format",
	StateDone:      "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Transition carries the facts the next state depends on.
type Transition struct {
	Terminal bool
	High     int
	Mid      int
}

// Next returns the state that follows s.
//
//	CLASSIFY  -> terminal ? FORMAT : SEARCH
//	SEARCH    -> high ? EXTRACT : mid ? CRAWL : AGGREGATE
//	EXTRACT   -> AGGREGATE
//	CRAWL     -> AGGREGATE
//	AGGREGATE -> FORMAT
//	FORMAT    -> DONE
func Next(s State, t Transition) State {
	switch s {
	case StateClassify:
		if t.Terminal {
			return StateFormat
		}
		return StateSearch
	case StateSearch:
		switch {
		case t.High > 0:
			return StateExtract
		case t.Mid > 0:
			return StateCrawl
		default:
			return StateAggregate
		}
	case StateExtract, StateCrawl:
		return StateAggregate
	case StateAggregate:
		return StateFormat
	default:
		return StateDone
	}
}
