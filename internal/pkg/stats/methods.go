package stats

/////////////////////////
//       Workers       //
/////////////////////////

// WorkersRunningIncr marks one more worker as running.
func WorkersRunningIncr() {
	if s := globalStats.Load(); s != nil {
		s.WorkersRunning.incr(1)
	}
	if p := globalPromStats.Load(); p != nil {
		p.workersRunning.WithLabelValues(labelValues()...).Inc()
	}
}

// WorkersRunningDecr marks one running worker as finished.
func WorkersRunningDecr() {
	if s := globalStats.Load(); s != nil {
		s.WorkersRunning.decr(1)
		s.WorkersFinished.incr(1)
	}
	if p := globalPromStats.Load(); p != nil {
		p.workersRunning.WithLabelValues(labelValues()...).Dec()
	}
}

// WorkersRunningGet returns the number of running workers.
func WorkersRunningGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.WorkersRunning.get()
	}
	return 0
}

// WorkersFinishedGet returns the number of workers that completed their lifecycle.
func WorkersFinishedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.WorkersFinished.get()
	}
	return 0
}

/////////////////////////
//        Feed         //
/////////////////////////

// LineFed records one line of n bytes written to a first stage.
func LineFed(n int) {
	if s := globalStats.Load(); s != nil {
		s.LinesFed.incr(1)
		s.BytesFed.incr(uint64(n))
	}
	if p := globalPromStats.Load(); p != nil {
		labels := labelValues()
		p.linesFed.WithLabelValues(labels...).Inc()
		p.bytesFed.WithLabelValues(labels...).Add(float64(n))
	}
}

// LinesFedGet returns the total number of lines fed.
func LinesFedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.LinesFed.getTotal()
	}
	return 0
}

// BytesFedGet returns the total number of bytes fed.
func BytesFedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.BytesFed.get()
	}
	return 0
}

// LinesDroppedIncr records one line a first stage refused.
func LinesDroppedIncr() {
	if s := globalStats.Load(); s != nil {
		s.LinesDropped.incr(1)
	}
	if p := globalPromStats.Load(); p != nil {
		p.linesDropped.WithLabelValues(labelValues()...).Inc()
	}
}

// LinesDroppedGet returns the number of dropped lines.
func LinesDroppedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.LinesDropped.get()
	}
	return 0
}

/////////////////////////
//       Collect       //
/////////////////////////

// BytesCollectedAdd records n bytes forwarded to the output sink.
func BytesCollectedAdd(n int) {
	if s := globalStats.Load(); s != nil {
		s.BytesCollected.incr(uint64(n))
	}
	if p := globalPromStats.Load(); p != nil {
		p.bytesCollected.WithLabelValues(labelValues()...).Add(float64(n))
	}
}

// BytesCollectedGet returns the number of bytes forwarded to the output sink.
func BytesCollectedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.BytesCollected.get()
	}
	return 0
}

/////////////////////////
//       Runner        //
/////////////////////////

// ChannelsAllocatedAdd records n newly allocated channels.
func ChannelsAllocatedAdd(n uint64) {
	if s := globalStats.Load(); s != nil {
		s.ChannelsAllocated.incr(n)
	}
	if p := globalPromStats.Load(); p != nil {
		p.channelsAllocated.WithLabelValues(labelValues()...).Add(float64(n))
	}
}

// ChannelsAllocatedGet returns the number of allocated channels.
func ChannelsAllocatedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.ChannelsAllocated.get()
	}
	return 0
}

// StagesStartedIncr records one started stage process.
func StagesStartedIncr() {
	if s := globalStats.Load(); s != nil {
		s.StagesStarted.incr(1)
	}
	if p := globalPromStats.Load(); p != nil {
		p.stagesStarted.WithLabelValues(labelValues()...).Inc()
	}
}

// StagesStartedGet returns the number of started stage processes.
func StagesStartedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.StagesStarted.get()
	}
	return 0
}

// StagesFailedIncr records one stage that failed to start or exited non-zero.
func StagesFailedIncr() {
	if s := globalStats.Load(); s != nil {
		s.StagesFailed.incr(1)
	}
	if p := globalPromStats.Load(); p != nil {
		p.stagesFailed.WithLabelValues(labelValues()...).Inc()
	}
}

// StagesFailedGet returns the number of failed stages.
func StagesFailedGet() uint64 {
	if s := globalStats.Load(); s != nil {
		return s.StagesFailed.get()
	}
	return 0
}
