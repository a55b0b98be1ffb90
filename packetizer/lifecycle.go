package packetizer

import (
	"context"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/rbrun/packetize/cluster"
	"github.com/rbrun/packetize/dataset"
	pkgerrors "github.com/rbrun/packetize/errors"
	"github.com/rbrun/packetize/logging"
	"github.com/rbrun/packetize/stats"
)

// WorkerSpec describes one worker joining a Packetizer run.
type WorkerSpec struct {
	// WorkerID uniquely identifies the worker. If empty, New generates one.
	WorkerID string
	Host     string
	// PerfIdx is this worker's relative performance index, used to size
	// its very first packet before any rate has been measured. Defaults
	// to 1 if zero or negative.
	PerfIdx float64
}

// Packetizer partitions a dataset of files into record-range packets and
// hands them out to workers one at a time via NextPacket, balancing data
// locality against per-worker rate and spreading remote reads across
// hosts (§4).
type Packetizer struct {
	params     Params
	comparator Comparator
	log        *logging.Logger
	sink       stats.PerfSink

	isTree bool

	nodes      []*FileNode
	nodeByHash map[uint64]*FileNode

	workers     map[string]*WorkerStat
	workerOrder []string

	unallocated []*FileNode
	active      []*FileNode

	totalEntries int64
	processed    int64
	bytesRead    int64
	cumProcTime  float64
	maxPerfIdx   float64

	nEventsOnRemLoc int64

	valid bool
	stop  bool

	// rawElements preserves the caller's original input order so the
	// window pass (applyWindow) and the post-validation offset
	// computation can walk surviving Elements in dataset order rather
	// than in whatever order their GetEntriesReply happened to arrive.
	rawElements []*dataset.Element
	dropped     map[*dataset.Element]bool

	validated []*dataset.Element
}

// Options configures New.
type Options struct {
	Params Params
	Logger *logging.Logger
	Sink   stats.PerfSink
	IsTree bool
}

// New builds a Packetizer from a set of Elements and workers, validates
// every file against the cluster, and applies the [first, first+num)
// window to the surviving, validated Elements (§4.1).
func New(ctx context.Context, c cluster.Cluster, elements []*dataset.Element, workers []WorkerSpec, first, num int64, opts Options) (*Packetizer, error) {
	ensureDefaultParamsValues(&opts.Params)

	p := &Packetizer{
		params:      opts.Params,
		comparator:  NewComparator(opts.Params.HDFasterThanNetwork, opts.Params.MaxWorkersPerNode),
		log:         opts.Logger,
		sink:        opts.Sink,
		isTree:      opts.IsTree,
		nodeByHash:  map[uint64]*FileNode{},
		workers:     map[string]*WorkerStat{},
		valid:       true,
		maxPerfIdx:  1,
		rawElements: elements,
		dropped:     map[*dataset.Element]bool{},
	}
	if p.sink == nil {
		p.sink = stats.NopSink{}
	}

	for _, e := range elements {
		p.addElement(e)
	}

	for _, spec := range workers {
		p.addWorker(spec)
	}

	p.resetTopology()

	if err := p.validate(ctx, c); err != nil {
		return p, err
	}
	if !p.valid {
		return p, pkgerrors.ValidationError{Reason: "no valid or non-empty file found"}
	}

	p.applyWindow(first, num)
	p.resetTopology()
	if !p.valid {
		return p, pkgerrors.ConfigurationError{Reason: "no records left after applying the window"}
	}

	return p, nil
}

func (p *Packetizer) addElement(e *dataset.Element) {
	p.clampElement(e)
	if p.params.WriteV3 {
		e.WriteV3 = true
	}
	node := p.nodeFor(e.Host())
	fs := newFileStat(e, node)
	node.Add(fs)
}

// clampElement enforces the contract-error policy: a nonsensical first/num
// is warned about and clamped in place, never rejected outright (§7).
func (p *Packetizer) clampElement(e *dataset.Element) {
	if e.First >= 0 && e.Num >= -1 {
		return
	}
	if p.log != nil {
		p.log.Warn("clamping invalid element range",
			zap.String("file", e.FileURL),
			zap.Error(pkgerrors.InvalidElementError{First: e.First, Num: e.Num}))
	}
	if e.First < 0 {
		e.First = 0
	}
	if e.Num < -1 {
		e.Num = -1
	}
}

func (p *Packetizer) nodeFor(host string) *FileNode {
	h := xxhash.Sum64String(host)
	if n, ok := p.nodeByHash[h]; ok {
		return n
	}
	n := newFileNode(host)
	p.nodeByHash[h] = n
	p.nodes = append(p.nodes, n)
	return n
}

func (p *Packetizer) addWorker(spec WorkerSpec) {
	id := spec.WorkerID
	if id == "" {
		generated, err := uuid.NewV4()
		if err == nil {
			id = generated.String()
		}
	}
	w := newWorkerStat(id, spec.Host, spec.PerfIdx)
	if w.PerfIdx > p.maxPerfIdx {
		p.maxPerfIdx = w.PerfIdx
	}
	p.workers[id] = w
	p.workerOrder = append(p.workerOrder, id)
}

// applyWindow re-scans the validated Elements in the caller's original
// input order, keeping only those (or the trimmed parts of those)
// overlapping [first, first+num), and accumulates totalEntries and each
// node's event counts (§4.1).
//
// It walks p.rawElements rather than p.validated: the latter is filled
// during validate() in the order GetEntriesReplys happen to arrive off
// the wire, which needn't match the dataset's original order once more
// than one worker or host is involved. The window math below depends on
// a running position (cur) that only means anything if files are
// visited in the order they appear in the dataset, exactly as the
// reference algorithm re-walks its original, insertion-ordered file list
// for this same pass rather than trusting validation completion order.
func (p *Packetizer) applyWindow(first, num int64) {
	kept := make([]*dataset.Element, 0, len(p.validated))
	p.nodes = nil
	p.nodeByHash = map[uint64]*FileNode{}
	p.totalEntries = 0

	var cur int64
	for _, e := range p.rawElements {
		if p.dropped[e] {
			continue
		}
		eFirst, eNum := e.First, e.Num

		if e.Selection == nil {
			if cur+eNum <= first {
				cur += eNum
				continue
			}
			if num != -1 && first+num <= cur {
				cur += eNum
				continue
			}
			if num != -1 && first+num < cur+eNum {
				e.Num = first + num - cur
			}
			if cur < first {
				e.First = eFirst + (first - cur)
				e.Num = e.Num - (first - cur)
			}
			cur += eNum
		} else if e.Selection.Size() == 0 {
			continue
		}

		kept = append(kept, e)
		node := p.nodeFor(e.Host())
		fs := newFileStat(e, node)
		node.Add(fs)
		node.IncEvents(e.Num)
		p.totalEntries += e.Num
	}
	p.validated = kept

	if len(p.nodes) == 0 {
		p.valid = false
		return
	}

	// Workers are only linked to these freshly built nodes by the
	// resetTopology call that follows, so native hosts are looked up here.
	hasNative := map[*FileNode]bool{}
	for _, w := range p.workers {
		if n, ok := p.nodeByHash[xxhash.Sum64String(w.WorkerHost)]; ok {
			hasNative[n] = true
		}
	}

	var noRemoteFiles, totalFiles int
	p.nEventsOnRemLoc = 0
	for _, n := range p.nodes {
		totalFiles += n.GetNumberOfFiles()
		if !hasNative[n] {
			noRemoteFiles += n.GetNumberOfFiles()
			p.nEventsOnRemLoc += n.GetNEvents() - n.GetProcessed()
		}
	}
	if totalFiles == 0 {
		p.valid = false
	}
}

// resetTopology rewinds every node's cursors/counters and re-associates
// workers with their native FileNode, without discarding the files
// themselves — the same operation Reset exposes publicly for replaying a
// run against a fresh worker set.
func (p *Packetizer) resetTopology() {
	p.unallocated = append(p.unallocated[:0], p.nodes...)
	p.active = p.active[:0]

	for _, n := range p.nodes {
		n.Reset()
	}

	for _, id := range p.workerOrder {
		w := p.workers[id]
		h := xxhash.Sum64String(w.WorkerHost)
		if n, ok := p.nodeByHash[h]; ok {
			w.SetFileNode(n)
			n.IncMySlaveCnt()
		} else {
			w.SetFileNode(nil)
		}
		w.curFile = nil
	}
}

// Reset rewinds the packetizer's dispatch state — per-node cursors,
// per-worker assignments, processed counters — without discarding the
// validated file topology, so the same run can be replayed against a
// fresh set of workers. Each worker's own cumulative processed count and
// rates are kept.
func (p *Packetizer) Reset() {
	p.processed = 0
	p.bytesRead = 0
	p.cumProcTime = 0
	p.stop = false
	p.resetTopology()
}

// Stop marks the packetizer so that all subsequent NextPacket calls
// return nil.
func (p *Packetizer) Stop() { p.stop = true }

// Valid reports whether the packetizer is still usable.
func (p *Packetizer) Valid() bool { return p.valid }

// TotalEntries returns the total number of records across all validated,
// windowed Elements.
func (p *Packetizer) TotalEntries() int64 { return p.totalEntries }

// Processed returns the total number of records dispatched and reported
// complete so far.
func (p *Packetizer) Processed() int64 { return p.processed }

// EntriesProcessed returns how many records the named worker has
// personally finished processing.
func (p *Packetizer) EntriesProcessed(workerID string) int64 {
	w, ok := p.workers[workerID]
	if !ok {
		return 0
	}
	return w.GetEntriesProcessed()
}
