package packetizer

import (
	"github.com/rbrun/packetize/cluster"
	"github.com/rbrun/packetize/dataset"
)

// nextNode returns the FileNode most in need of a worker among those
// with unallocated files, or nil if the best candidate is already at
// MaxWorkersPerNode external workers (§4.3).
func (p *Packetizer) nextNode() *FileNode {
	SortNodes(p.unallocated, p.comparator)
	if len(p.unallocated) == 0 {
		return nil
	}
	n := p.unallocated[0]
	if n.GetExtSlaveCnt() >= p.params.MaxWorkersPerNode {
		return nil
	}
	return n
}

func (p *Packetizer) removeUnallocNode(n *FileNode) {
	for i, x := range p.unallocated {
		if x == n {
			p.unallocated = append(p.unallocated[:i], p.unallocated[i+1:]...)
			return
		}
	}
}

// getNextUnalloc returns the next unallocated file, searching all nodes
// with unallocated files in comparator order (§4.3/4.2 step 1).
func (p *Packetizer) getNextUnalloc() *FileStat {
	var file *FileStat
	for file == nil {
		n := p.nextNode()
		if n == nil {
			return nil
		}
		file = n.GetNextUnAlloc()
		if file == nil {
			p.removeUnallocNode(n)
			continue
		}
		p.markActive(n)
	}
	return file
}

func (p *Packetizer) markActive(n *FileNode) {
	for _, a := range p.active {
		if a == n {
			return
		}
	}
	p.active = append(p.active, n)
}

func (p *Packetizer) nextActiveNode() *FileNode {
	SortNodes(p.active, p.comparator)
	if len(p.active) == 0 {
		return nil
	}
	n := p.active[0]
	if n.GetExtSlaveCnt() >= p.params.MaxWorkersPerNode {
		return nil
	}
	return n
}

func (p *Packetizer) removeActiveNode(n *FileNode) {
	for i, x := range p.active {
		if x == n {
			p.active = append(p.active[:i], p.active[i+1:]...)
			return
		}
	}
}

// getNextActive round-robins across active nodes looking for any file
// still being worked.
func (p *Packetizer) getNextActive() *FileStat {
	for {
		n := p.nextActiveNode()
		if n == nil {
			return nil
		}
		file := n.GetNextActive()
		if file == nil {
			p.removeActiveNode(n)
			continue
		}
		return file
	}
}

func (p *Packetizer) removeActive(fs *FileStat) {
	n := fs.Node()
	n.RemoveActive(fs)
	if n.GetNumberOfActiveFiles() == 0 {
		p.removeActiveNode(n)
	}
}

// NextPacket picks the next record-range packet for workerID, given the
// decoded reply for whatever packet it was previously working on (nil if
// this is its first packet). Returns nil once there is no more work, the
// packetizer has been stopped, or it was never valid.
//
// NextPacket never talks to a Cluster: the caller is responsible for
// decoding a worker's wire reply into a *cluster.PacketReply before
// calling this (§4.4) — the dispatch loop itself has no transport
// dependency.
func (p *Packetizer) NextPacket(workerID string, report *cluster.PacketReply) *dataset.Element {
	if !p.valid {
		return nil
	}

	w, ok := p.workers[workerID]
	if !ok {
		return nil
	}

	if w.curElem != nil && report != nil {
		numev := w.curElem.Num
		if report.EventsSeen >= 0 {
			numev = report.EventsSeen - w.processed
		}
		if numev < 0 {
			numev = 0
		}
		p.processed += numev
		if report.BytesRead > 0 {
			p.bytesRead += report.BytesRead
		}

		w.UpdateRates(numev, report.ProcTime)
		p.cumProcTime += report.ProcTime

		p.sink.PacketEvent(w.WorkerID, w.WorkerHost, w.curElem.FileURL, numev, report.Latency, report.ProcTime, report.ProcCPU, report.BytesRead)

		w.curElem = nil
	}

	if p.stop {
		return nil
	}

	file := w.curFile
	if file != nil && file.IsDone() {
		file.Node().DecExtSlaveCnt(w.WorkerHost)
		file.Node().DecRunSlaveCnt()
		p.sink.FileEvent(w.WorkerID, w.WorkerHost, file.Node().Name(), file.Element.FileURL, false)
		file = nil
	}

	if p.totalEntries == p.processed {
		return nil
	}

	numWorkers := int64(len(p.workers))
	if numWorkers == 0 {
		numWorkers = 1
	}
	avgEventsLeftPerSlave := (p.totalEntries - p.processed) / numWorkers

	if file == nil {
		file = p.pickNextFile(w, avgEventsLeftPerSlave)
		if file == nil {
			return nil
		}
		w.curFile = file

		if file.Node().GetMySlaveCnt() == 0 && file.Element.First == file.NextEntry() {
			p.nEventsOnRemLoc -= file.Element.Num
			if p.nEventsOnRemLoc < 0 {
				p.nEventsOnRemLoc = 0
			}
		}
		file.Node().IncExtSlaveCnt(w.WorkerHost)
		file.Node().IncRunSlaveCnt()
		p.sink.FileEvent(w.WorkerID, w.WorkerHost, file.Node().Name(), file.Element.FileURL, true)
	}

	num := p.calculatePacketSize(w)

	base := file.Element
	first := file.NextEntry()
	last := base.First + base.Num

	if first+num >= last {
		num = last - first
		file.setDone()
		p.removeActive(file)
	} else {
		file.moveNextEntry(num)
	}

	packet := base.Clone()
	packet.First = first
	packet.Num = num
	if base.Selection != nil {
		packet.Selection = base.Selection.Restrict(first, num)
	}
	w.curElem = packet

	return packet
}

// pickNextFile implements the local-vs-remote decision cascade: a worker
// with remaining local work only abandons it for a remote node when that
// remote node is sufficiently starved relative to BaseLocalPreference
// (§4.4 steps 4-5).
func (p *Packetizer) pickNextFile(w *WorkerStat, avgEventsLeftPerSlave int64) *FileStat {
	var file *FileStat

	localPreference := p.params.BaseLocalPreference
	if p.totalEntries-p.processed > 0 {
		localPreference -= float64(p.nEventsOnRemLoc) / (0.4 * float64(p.totalEntries-p.processed))
	}

	if node := w.GetFileNode(); node != nil {
		firstNonLocal := p.nextNode()
		nonLocalPossible := firstNonLocal != nil && firstNonLocal.GetExtSlaveCnt() < p.params.MaxWorkersPerNode
		openLocal := !nonLocalPossible
		slaveRate := w.GetAvgRate()

		if nonLocalPossible {
			switch {
			case node.GetRunSlaveCnt() > node.GetMySlaveCnt()-1:
				openLocal = true
			case slaveRate == 0:
				localLeft := float64(w.GetLocalEventsLeft())
				switch {
				case localLeft*localPreference > float64(avgEventsLeftPerSlave):
					openLocal = true
				case float64(firstNonLocal.GetEventsLeftPerSlave()) < localLeft*localPreference:
					openLocal = true
				case firstNonLocal.GetExtSlaveCnt() > 1:
					openLocal = true
				case firstNonLocal.GetRunSlaveCnt() == 0:
					openLocal = true
				}
			default:
				slaveTime := float64(w.GetLocalEventsLeft()) / slaveRate
				avgTime := float64(avgEventsLeftPerSlave) / (float64(p.processed) / p.cumProcTime)
				switch {
				case slaveTime*localPreference > avgTime:
					openLocal = true
				case float64(firstNonLocal.GetEventsLeftPerSlave()) < float64(w.GetLocalEventsLeft())*localPreference:
					openLocal = true
				case firstNonLocal.GetExtSlaveCnt() > 1:
					openLocal = true
				case firstNonLocal.GetRunSlaveCnt() == 0:
					openLocal = true
				}
			}
		}

		if openLocal {
			file = node.GetNextUnAlloc()
			if file == nil {
				file = node.GetNextActive()
			}
			if file == nil {
				w.SetFileNode(nil)
			}
		}
	}

	if file == nil {
		file = p.getNextUnalloc()
	}
	if file == nil {
		file = p.getNextActive()
	}
	return file
}

// calculatePacketSize sizes the worker's next packet from its own recent
// rate, falling back to a performance-index-scaled share of the dataset
// for its very first packet (§4.5).
func (p *Packetizer) calculatePacketSize(w *WorkerStat) int64 {
	const packetSizeAsFraction = 4

	rate := w.GetCurRate()
	if rate == 0 {
		rate = w.GetAvgRate()
	}

	var num int64
	if rate != 0 {
		numWorkers := float64(len(p.workers))
		avgProcRate := float64(p.processed) / (p.cumProcTime / numWorkers)
		packetTime := (float64(p.totalEntries-p.processed) / avgProcRate) / packetSizeAsFraction
		if packetTime < 2 {
			packetTime = 2
		}
		num = int64(rate * packetTime)
	} else {
		numWorkers := int64(len(p.workers))
		if numWorkers == 0 {
			numWorkers = 1
		}
		packetSize := (p.totalEntries - p.processed) / (8 * packetSizeAsFraction * numWorkers)
		num = int64(float64(packetSize) * (w.PerfIdx / p.maxPerfIdx))
	}
	if num < 1 {
		num = 1
	}
	return num
}
