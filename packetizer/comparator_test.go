package packetizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNetworkFasterComparatorPrefersFewerRunningWorkers(t *testing.T) {
	busy := newFileNode("busy")
	busy.runSlaveCnt = 3
	busy.events = 1000

	idle := newFileNode("idle")
	idle.runSlaveCnt = 0
	idle.events = 1000

	cmp := NewComparator(false, 4)
	require.True(t, cmp.Less(idle, busy))
	require.False(t, cmp.Less(busy, idle))
}

func TestNetworkFasterComparatorTiebreaksOnRemainingEvents(t *testing.T) {
	more := newFileNode("more")
	more.runSlaveCnt = 1
	more.events = 1000
	more.processed = 100 // 900 left

	less := newFileNode("less")
	less.runSlaveCnt = 1
	less.events = 1000
	less.processed = 900 // 100 left

	cmp := NewComparator(false, 4)
	require.True(t, cmp.Less(more, less))
}

func TestHDFasterComparatorFlipsFirstTierOnLargeEventsGap(t *testing.T) {
	a := newFileNode("a")
	a.mySlaveCnt = 2
	a.events = 1000 // idle otherwise: runSlaveCnt 0, extSlaveCnt 0

	b := newFileNode("b")
	b.mySlaveCnt = 2
	b.runSlaveCnt = 2
	b.events = 1000 // fully staffed, less left per worker

	cmp := NewComparator(true, 4)
	// a's (GetSlaveCnt - GetRunSlaveCnt) balance is 2, b's is 0: a loses
	// the first tier, but the gap in remainingPerWorker is large enough
	// (a has far more left per worker since it has no running workers
	// yet) to flip the decision back in a's favor.
	require.True(t, cmp.Less(a, b))
}

func TestSortNodesOrdersMostNeedingFirst(t *testing.T) {
	a := newFileNode("a")
	a.runSlaveCnt = 2
	b := newFileNode("b")
	b.runSlaveCnt = 0
	c := newFileNode("c")
	c.runSlaveCnt = 1

	nodes := []*FileNode{a, b, c}
	SortNodes(nodes, NewComparator(false, 4))
	require.Equal(t, []*FileNode{b, c, a}, nodes)
}
