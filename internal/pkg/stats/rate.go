package stats

import (
	"time"

	"github.com/paulbellamy/ratecounter"
)

// rate keeps a running total along with the number of increments seen during the last second
type rate struct {
	total   counter
	counter *ratecounter.RateCounter
}

func newRate() *rate {
	return &rate{
		counter: ratecounter.NewRateCounter(time.Second),
	}
}

func (r *rate) incr(step uint64) {
	r.total.incr(step)
	r.counter.Incr(int64(step))
}

// get returns the number of increments during the last second
func (r *rate) get() int64 {
	return r.counter.Rate()
}

func (r *rate) getTotal() uint64 {
	return r.total.get()
}
