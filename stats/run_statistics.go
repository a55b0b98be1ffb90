package stats

import (
	"sync"
	"time"
)

const rollingWindowSize = 5

// RunStatistics is a default, in-memory PerfSink which aggregates the
// numbers most callers actually want (processed records, bytes read, a
// rolling average of recent packet latency) without requiring a full
// external metrics backend. It is safe to read concurrently with the
// Packetizer calling into it: every method holds mu for its duration.
type RunStatistics struct {
	mu sync.Mutex

	started   bool
	startTime time.Time
	finished  bool
	totalTime time.Duration

	processed int64
	bytesRead int64

	recentProcTimes     [rollingWindowSize]float64
	recentProcTimesHead int

	filesStarted int64
	filesStopped int64
}

// Start begins statistics tracking, if it hasn't started already
func (rs *RunStatistics) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if !rs.started {
		rs.started = true
		rs.startTime = time.Now()
	}
}

// Finish completes statistics tracking
func (rs *RunStatistics) Finish() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.finished = true
	rs.totalTime = time.Since(rs.startTime)
}

// PacketEvent implements stats.PerfSink
func (rs *RunStatistics) PacketEvent(workerID, workerHost, fileName string, entries int64, latency, procTime, procCPU float64, bytesRead int64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if entries > 0 {
		rs.processed += entries
	}
	if bytesRead > 0 {
		rs.bytesRead += bytesRead
	}
	rs.recentProcTimes[rs.recentProcTimesHead] = procTime
	rs.recentProcTimesHead = (rs.recentProcTimesHead + 1) % rollingWindowSize
}

// FileEvent implements stats.PerfSink
func (rs *RunStatistics) FileEvent(workerID, workerHost, nodeHost, fileName string, starting bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if starting {
		rs.filesStarted++
	} else {
		rs.filesStopped++
	}
}

// Processed returns the number of records processed so far
func (rs *RunStatistics) Processed() int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.processed
}

// BytesRead returns the number of bytes read so far, across all workers
func (rs *RunStatistics) BytesRead() int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.bytesRead
}

// Runtime returns the running (or final, once Finish has been called) duration of the query
func (rs *RunStatistics) Runtime() time.Duration {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.finished {
		return rs.totalTime
	}
	return time.Since(rs.startTime)
}

// RecentMeanProcTime returns a rolling average of recent packet processing times
func (rs *RunStatistics) RecentMeanProcTime() float64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	var total float64
	for _, t := range rs.recentProcTimes {
		total += t
	}
	return total / float64(rollingWindowSize)
}
