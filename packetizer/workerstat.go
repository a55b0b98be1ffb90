package packetizer

import "github.com/rbrun/packetize/dataset"

// WorkerStat tracks one worker's assigned FileNode, current file and
// in-flight packet, and the rolling rates used to size its next packet.
type WorkerStat struct {
	WorkerID   string
	WorkerHost string
	PerfIdx    float64

	node    *FileNode
	curFile *FileStat
	curElem *dataset.Element

	processed int64
	procTime  float64

	curProcessed int64
	curProcTime  float64
}

func newWorkerStat(workerID, workerHost string, perfIdx float64) *WorkerStat {
	if perfIdx <= 0 {
		perfIdx = 1
	}
	return &WorkerStat{WorkerID: workerID, WorkerHost: workerHost, PerfIdx: perfIdx}
}

// GetFileNode returns the worker's native node, or nil if it has none or
// has exhausted it.
func (w *WorkerStat) GetFileNode() *FileNode { return w.node }

// SetFileNode reassigns (or clears, via nil) the worker's native node.
func (w *WorkerStat) SetFileNode(n *FileNode) { w.node = n }

// GetAvgRate is the worker's events-per-second averaged over its whole
// run so far, or 0 if it hasn't finished any packet yet.
func (w *WorkerStat) GetAvgRate() float64 {
	if w.procTime == 0 {
		return 0
	}
	return float64(w.processed) / w.procTime
}

// GetCurRate is the worker's events-per-second within its current file
// only, or 0 if it just started that file.
func (w *WorkerStat) GetCurRate() float64 {
	if w.curProcTime == 0 {
		return 0
	}
	return float64(w.curProcessed) / w.curProcTime
}

// GetLocalEventsLeft estimates remaining events per worker on this
// worker's native node, or 0 if it has none.
func (w *WorkerStat) GetLocalEventsLeft() int64 {
	if w.node == nil {
		return 0
	}
	return w.node.GetEventsLeftPerSlave()
}

// GetEntriesProcessed returns the worker's cumulative processed count.
func (w *WorkerStat) GetEntriesProcessed() int64 { return w.processed }

// UpdateRates folds a just-finished packet's stats into the worker's
// rolling rates. The current-file window is reset, not accumulated,
// whenever the file backing it is already marked done at the moment of
// this call — matching the reference algorithm's ordering exactly, which
// is not simply "reset on file change": the numbers of a packet that
// finished its file are dropped from the current-file window (left at
// zero), while the cumulative totals always accumulate regardless.
func (w *WorkerStat) UpdateRates(nEvents int64, procTime float64) {
	if w.curFile != nil && w.curFile.IsDone() {
		w.curProcTime = 0
		w.curProcessed = 0
	} else {
		w.curProcTime += procTime
		w.curProcessed += nEvents
	}
	w.procTime += procTime
	w.processed += nEvents
	if w.curFile != nil {
		w.curFile.Node().IncProcessed(nEvents)
	}
}
