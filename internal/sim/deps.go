package sim

import (
	"log"
	"math/rand"

	"rift-and-ruin/server/logging"
)

// Deps carries shared infrastructure dependencies required by the
// simulation engine.
type Deps struct {
	Logger    *log.Logger
	Clock     logging.Clock
	RNG       *rand.Rand
	Publisher logging.Publisher
}

func (d Deps) normalized() Deps {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Clock == nil {
		d.Clock = logging.SystemClock{}
	}
	return d
}
