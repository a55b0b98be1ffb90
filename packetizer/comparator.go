package packetizer

import "sort"

// Comparator ranks two FileNodes for NextNode/NextActiveNode: Less(a, b)
// reports whether a is more in need of a worker than b, i.e. a should
// sort first. Two implementations exist because the right ranking
// depends on whether the cluster's network or its local disks are the
// scarcer resource (design note: Multiple comparison modes).
type Comparator interface {
	Less(a, b *FileNode) bool
}

// NewComparator picks the Comparator matching Params.HDFasterThanNetwork.
func NewComparator(hdFasterThanNetwork bool, maxWorkersPerNode int) Comparator {
	if hdFasterThanNetwork {
		return hdFasterComparator{maxWorkersPerNode: maxWorkersPerNode}
	}
	return networkFasterComparator{}
}

// SortNodes orders nodes in place, most-needing-a-worker first.
func SortNodes(nodes []*FileNode, cmp Comparator) {
	sort.SliceStable(nodes, func(i, j int) bool { return cmp.Less(nodes[i], nodes[j]) })
}

// networkFasterComparator assumes network bandwidth exceeds local disk
// throughput: nodes are ranked purely by how many workers are already
// running against them, then by remaining events.
type networkFasterComparator struct{}

func (networkFasterComparator) Less(a, b *FileNode) bool {
	if a.GetRunSlaveCnt() != b.GetRunSlaveCnt() {
		return a.GetRunSlaveCnt() < b.GetRunSlaveCnt()
	}
	return (a.events - a.processed) > (b.events - b.processed)
}

// hdFasterComparator assumes local disk throughput exceeds network
// bandwidth. Nodes are ranked by how many native workers are not running
// on them (GetSlaveCnt - GetRunSlaveCnt), then remote-worker count, then
// own-worker count, each decision reversible when the gap between the two
// nodes' events-left-per-worker is large enough relative to their average
// (avEventsLeft/2 for the first tier, /3 for the next two); a full tie on
// those goes to the node with more remaining events.
type hdFasterComparator struct {
	maxWorkersPerNode int
}

func (c hdFasterComparator) Less(a, b *FileNode) bool {
	return c.compare(a, b) < 0
}

func (c hdFasterComparator) compare(a, b *FileNode) int {
	diffEvents := a.GetEventsLeftPerSlave() - b.GetEventsLeftPerSlave()
	avEventsLeft := (a.GetEventsLeftPerSlave() + b.GetEventsLeftPerSlave()) / 2

	aRemote := a.GetSlaveCnt() - a.GetRunSlaveCnt()
	bRemote := b.GetSlaveCnt() - b.GetRunSlaveCnt()

	max := int64(c.maxWorkersPerNode)

	switch {
	case aRemote < bRemote:
		if diffEvents < -(avEventsLeft/2) && int64(b.GetExtSlaveCnt()) < max {
			return 1
		}
		return -1
	case aRemote > bRemote:
		if diffEvents > (avEventsLeft/2) && int64(a.GetExtSlaveCnt()) < max {
			return -1
		}
		return 1
	}

	if a.GetExtSlaveCnt() != b.GetExtSlaveCnt() {
		if a.GetExtSlaveCnt() < b.GetExtSlaveCnt() {
			if diffEvents < -(avEventsLeft/3) && int64(b.GetExtSlaveCnt()) < max {
				return 1
			}
			return -1
		}
		if diffEvents > (avEventsLeft/3) && int64(a.GetExtSlaveCnt()) < max {
			return -1
		}
		return 1
	}

	if a.GetMySlaveCnt() != b.GetMySlaveCnt() {
		if a.GetMySlaveCnt() < b.GetMySlaveCnt() {
			if diffEvents < -(avEventsLeft/3) && int64(b.GetExtSlaveCnt()) < max {
				return 1
			}
			return -1
		}
		if diffEvents > (avEventsLeft/3) && int64(a.GetExtSlaveCnt()) < max {
			return -1
		}
		return 1
	}

	aLeft, bLeft := a.events-a.processed, b.events-b.processed
	switch {
	case aLeft > bLeft:
		return -1
	case aLeft < bLeft:
		return 1
	default:
		return 0
	}
}
