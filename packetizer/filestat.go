package packetizer

import "github.com/rbrun/packetize/dataset"

// FileStat tracks one Element's progress through dispatch: a cursor into
// its [First, First+Num) range and whether it's been fully carved up.
//
// Node holds the owning FileNode directly. An earlier revision of this
// package threaded an arena index instead, to sidestep the apparent
// FileStat<->FileNode cycle, but Go's collector handles reference cycles
// without help and the index only bought an extra layer of lookups, so
// the direct pointer stays.
type FileStat struct {
	Element   *dataset.Element
	nextEntry int64
	done      bool
	node      *FileNode
}

func newFileStat(e *dataset.Element, node *FileNode) *FileStat {
	return &FileStat{Element: e, nextEntry: e.First, node: node}
}

// IsDone reports whether this file's range has been fully carved into
// packets.
func (fs *FileStat) IsDone() bool { return fs.done }

func (fs *FileStat) setDone() { fs.done = true }

// Node returns this file's owning FileNode.
func (fs *FileStat) Node() *FileNode { return fs.node }

// NextEntry returns the cursor's current position.
func (fs *FileStat) NextEntry() int64 { return fs.nextEntry }

func (fs *FileStat) moveNextEntry(step int64) { fs.nextEntry += step }
