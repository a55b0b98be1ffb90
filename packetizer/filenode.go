package packetizer

// FileNode aggregates all files hosted on one machine, plus the worker
// counts and progress needed to rank nodes against each other (see
// Comparator). This package treats files and nodes as distinct concerns;
// FileNode owns its FileStat arena directly rather than through a shared
// List type.
//
// MaxWorkersPerNode is enforced at the call sites that hand a node a new
// worker (nextNode, nextActiveNode, pickNextFile's local-reopen branch),
// all of which compare GetExtSlaveCnt against Params.MaxWorkersPerNode
// before a node is ever selected; the dispatch loop is single-threaded
// (§5), so there is exactly one place at a time that can increment
// extSlaveCnt and nothing for a second enforcement layer to guard against.
type FileNode struct {
	host string

	files         []*FileStat
	unAllocCursor int

	active       []*FileStat
	activeCursor int

	mySlaveCnt  int // workers native to this host
	extSlaveCnt int // non-native workers currently processing this host's files
	runSlaveCnt int // mySlaveCnt + extSlaveCnt actually running, see GetSlaveCnt

	processed int64
	events    int64
}

func newFileNode(host string) *FileNode {
	return &FileNode{host: host}
}

// Name returns the node's host identity.
func (n *FileNode) Name() string { return n.host }

func (n *FileNode) IncMySlaveCnt()       { n.mySlaveCnt++ }
func (n *FileNode) GetMySlaveCnt() int   { return n.mySlaveCnt }
func (n *FileNode) GetExtSlaveCnt() int  { return n.extSlaveCnt }
func (n *FileNode) GetRunSlaveCnt() int  { return n.runSlaveCnt }
func (n *FileNode) GetSlaveCnt() int     { return n.mySlaveCnt + n.extSlaveCnt }
func (n *FileNode) GetProcessed() int64  { return n.processed }
func (n *FileNode) GetNEvents() int64    { return n.events }

// IncExtSlaveCnt records a non-native worker starting on this node.
// Capacity is enforced by the caller before this is reached (see the
// FileNode doc comment); workerHost is the worker's own host, so a
// worker native to this node is exempt and never counted.
func (n *FileNode) IncExtSlaveCnt(workerHost string) {
	if workerHost == n.host {
		return
	}
	n.extSlaveCnt++
}

// DecExtSlaveCnt reverses IncExtSlaveCnt.
func (n *FileNode) DecExtSlaveCnt(workerHost string) {
	if workerHost == n.host {
		return
	}
	n.extSlaveCnt--
}

func (n *FileNode) IncRunSlaveCnt() { n.runSlaveCnt++ }
func (n *FileNode) DecRunSlaveCnt() { n.runSlaveCnt-- }

func (n *FileNode) IncProcessed(nEvents int64) { n.processed += nEvents }
func (n *FileNode) IncEvents(nEvents int64)    { n.events += nEvents }

// GetEventsLeftPerSlave estimates how many events would be left per
// worker on this node if one more worker joined it — used by Compare to
// rank which node most needs the next worker.
func (n *FileNode) GetEventsLeftPerSlave() int64 {
	return (n.events - n.processed) / int64(n.runSlaveCnt+1)
}

func (n *FileNode) GetNumberOfFiles() int       { return len(n.files) }
func (n *FileNode) GetNumberOfActiveFiles() int { return len(n.active) }

// Add registers a file as hosted on this node.
func (n *FileNode) Add(fs *FileStat) { n.files = append(n.files, fs) }

// GetNextUnAlloc returns the next never-yet-assigned file on this node,
// moving it onto the active list, or nil if every file here has already
// been assigned once.
func (n *FileNode) GetNextUnAlloc() *FileStat {
	if n.unAllocCursor >= len(n.files) {
		return nil
	}
	fs := n.files[n.unAllocCursor]
	n.unAllocCursor++
	n.active = append(n.active, fs)
	return fs
}

// GetNextActive round-robins through files still being worked, skipping
// any marked done, or returns nil if none remain.
func (n *FileNode) GetNextActive() *FileStat {
	for i := 0; i < len(n.active); i++ {
		if n.activeCursor >= len(n.active) {
			n.activeCursor = 0
		}
		fs := n.active[n.activeCursor]
		n.activeCursor++
		if !fs.IsDone() {
			return fs
		}
	}
	return nil
}

// RemoveActive drops a finished file from the active list.
func (n *FileNode) RemoveActive(fs *FileStat) {
	for i, a := range n.active {
		if a == fs {
			n.active = append(n.active[:i], n.active[i+1:]...)
			if n.activeCursor > i {
				n.activeCursor--
			}
			return
		}
	}
}

// Reset rewinds this node's cursors and counters, and each file's own
// cursor and done flag, without discarding its file list, so the same
// topology can be replayed against a fresh set of workers.
func (n *FileNode) Reset() {
	for _, fs := range n.files {
		fs.nextEntry = fs.Element.First
		fs.done = false
	}
	n.unAllocCursor = 0
	n.active = n.active[:0]
	n.activeCursor = 0
	n.mySlaveCnt = 0
	n.extSlaveCnt = 0
	n.runSlaveCnt = 0
	n.processed = 0
}
