package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// State is the lifecycle of a session. The numeric values are stored in
// save files and must not change.
type State int

const (
	StatePlaying  State = 1
	StateLoading  State = 2
	StateGameOver State = 3
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	case StateLoading:
		return "LOADING"
	case StateGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

var turnsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "decree_turns_total",
		Help: "Turn submissions by outcome.",
	},
	[]string{"outcome"}, // ok, failed, rejected, game_over
)
