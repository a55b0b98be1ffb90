package stats

// PerfSink receives a live feed of packetizer events. It stands in for the
// process-global performance-stats sink the reference algorithm assumed
// (design note: Global state); a caller wires a concrete PerfSink into the
// Packetizer at construction instead of the packetizer reaching for a
// global. A nil PerfSink is valid and silently drops every event.
type PerfSink interface {
	// PacketEvent fires once a worker's packet reply has been folded into
	// the packetizer's bookkeeping: entries is the number of records the
	// worker actually reported processed (which can differ from the
	// dispatched packet size if the worker self-reports a running total).
	PacketEvent(workerID, workerHost, fileName string, entries int64, latency, procTime, procCPU float64, bytesRead int64)
	// FileEvent fires when a worker starts or stops reading a given file,
	// local or remote.
	FileEvent(workerID, workerHost, nodeHost, fileName string, starting bool)
}

// NopSink discards every event. It is the default when a caller does not
// supply a PerfSink.
type NopSink struct{}

// PacketEvent discards the event
func (NopSink) PacketEvent(workerID, workerHost, fileName string, entries int64, latency, procTime, procCPU float64, bytesRead int64) {
}

// FileEvent discards the event
func (NopSink) FileEvent(workerID, workerHost, nodeHost, fileName string, starting bool) {}
