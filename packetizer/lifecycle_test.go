package packetizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rbrun/packetize/cluster"
	"github.com/rbrun/packetize/dataset"
)

// fakeCluster answers every GET_ENTRIES request with a fixed record
// count, synchronously: Send stashes the reply, WaitAny pops it back.
// When reverseOrder is set, WaitAny pops the most-recently-sent request
// first instead of FIFO, letting tests simulate replies arriving in a
// different order than the requests that triggered them were sent in.
type fakeCluster struct {
	entriesByFile map[string]int64
	pending       []fakeReply
	bad           map[string]bool
	notified      []string
	reverseOrder  bool
	// fatalFor, if set, makes Send hand back a KindFatal reply for that
	// one workerID instead of a normal GetEntriesReply.
	fatalFor string
}

type fakeReply struct {
	workerID string
	reply    *cluster.ValidationReply
}

func newFakeCluster(entriesByFile map[string]int64) *fakeCluster {
	return &fakeCluster{entriesByFile: entriesByFile, bad: map[string]bool{}}
}

func (f *fakeCluster) Send(ctx context.Context, workerID string, req *cluster.GetEntriesRequest) error {
	if f.fatalFor != "" && workerID == f.fatalFor {
		f.pending = append(f.pending, fakeReply{
			workerID: workerID,
			reply:    &cluster.ValidationReply{Kind: cluster.KindFatal},
		})
		return nil
	}
	f.pending = append(f.pending, fakeReply{
		workerID: workerID,
		reply: &cluster.ValidationReply{
			Kind:    cluster.KindGetEntriesReply,
			Entries: &cluster.GetEntriesReply{Entries: f.entriesByFile[req.FileURL]},
		},
	})
	return nil
}

func (f *fakeCluster) WaitAny(ctx context.Context) (string, *cluster.ValidationReply, error) {
	var next fakeReply
	if f.reverseOrder {
		last := len(f.pending) - 1
		next = f.pending[last]
		f.pending = f.pending[:last]
	} else {
		next = f.pending[0]
		f.pending = f.pending[1:]
	}
	return next.workerID, next.reply, nil
}

func (f *fakeCluster) MarkBad(workerID string) { f.bad[workerID] = true }

func (f *fakeCluster) Notify(ctx context.Context, msg *cluster.ClientMessage) {
	f.notified = append(f.notified, msg.Text)
}

func TestNewPacketizerSingleFileSingleWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/file1.dat", Num: -1},
	}
	workers := []WorkerSpec{{WorkerID: "w1", Host: "host-a", PerfIdx: 1}}
	fc := newFakeCluster(map[string]int64{"cluster://host-a/file1.dat": 1000})

	p, err := New(context.Background(), fc, elements, workers, 0, -1, Options{})
	require.NoError(t, err)
	require.True(t, p.Valid())
	require.Equal(t, int64(1000), p.TotalEntries())

	var total int64
	var report *cluster.PacketReply
	for {
		pkt := p.NextPacket("w1", report)
		if pkt == nil {
			break
		}
		total += pkt.Num
		report = &cluster.PacketReply{EventsSeen: total, ProcTime: 1, BytesRead: -1, TotalEntries: -1}
	}
	require.Equal(t, int64(1000), total)
}

func TestNewPacketizerDropsEmptyFile(t *testing.T) {
	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/empty.dat", Num: -1},
		{FileURL: "cluster://host-a/full.dat", Num: -1},
	}
	workers := []WorkerSpec{{WorkerID: "w1", Host: "host-a"}}
	fc := newFakeCluster(map[string]int64{
		"cluster://host-a/empty.dat": 0,
		"cluster://host-a/full.dat":  500,
	})

	p, err := New(context.Background(), fc, elements, workers, 0, -1, Options{})
	require.NoError(t, err)
	require.True(t, p.Valid())
	require.Equal(t, int64(500), p.TotalEntries())
}

func TestNewPacketizerWindowTrimIsStableUnderOutOfOrderValidation(t *testing.T) {
	// Two files on two different hosts, so each is validated by a
	// different worker concurrently; fakeCluster is told to hand back
	// the second file's GetEntriesReply before the first's, exercising
	// the case the window math must get right regardless of completion
	// order (§4.1 / Testable Scenario 4).
	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/fileA.dat", Num: -1},
		{FileURL: "cluster://host-b/fileB.dat", Num: -1},
	}
	workers := []WorkerSpec{
		{WorkerID: "w1", Host: "host-a"},
		{WorkerID: "w2", Host: "host-b"},
	}
	fc := newFakeCluster(map[string]int64{
		"cluster://host-a/fileA.dat": 1000,
		"cluster://host-b/fileB.dat": 1000,
	})
	fc.reverseOrder = true

	p, err := New(context.Background(), fc, elements, workers, 500, 1000, Options{})
	require.NoError(t, err)
	require.True(t, p.Valid())
	require.Equal(t, int64(1000), p.TotalEntries())

	require.Equal(t, int64(500), elements[0].First)
	require.Equal(t, int64(500), elements[0].Num)
	require.Equal(t, int64(0), elements[1].First)
	require.Equal(t, int64(500), elements[1].Num)
	require.Equal(t, int64(0), elements[0].Offset)
	require.Equal(t, int64(1000), elements[1].Offset)
}

func TestNewPacketizerNotifiesClientWhenDroppingEmptyFile(t *testing.T) {
	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/empty.dat", Num: -1},
		{FileURL: "cluster://host-a/full.dat", Num: -1},
	}
	workers := []WorkerSpec{{WorkerID: "w1", Host: "host-a"}}
	fc := newFakeCluster(map[string]int64{
		"cluster://host-a/empty.dat": 0,
		"cluster://host-a/full.dat":  500,
	})

	p, err := New(context.Background(), fc, elements, workers, 0, -1, Options{})
	require.NoError(t, err)
	require.True(t, p.Valid())
	require.Len(t, fc.notified, 1)
	require.Contains(t, fc.notified[0], "empty.dat")
}

func TestNewPacketizerWindowTrimsEntries(t *testing.T) {
	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/file1.dat", Num: -1},
	}
	workers := []WorkerSpec{{WorkerID: "w1", Host: "host-a"}}
	fc := newFakeCluster(map[string]int64{"cluster://host-a/file1.dat": 1000})

	p, err := New(context.Background(), fc, elements, workers, 100, 200, Options{})
	require.NoError(t, err)
	require.True(t, p.Valid())
	require.Equal(t, int64(200), p.TotalEntries())
}

func TestResetAllowsReplayAgainstFreshWorkers(t *testing.T) {
	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/file1.dat", Num: -1},
	}
	workers := []WorkerSpec{{WorkerID: "w1", Host: "host-a"}}
	fc := newFakeCluster(map[string]int64{"cluster://host-a/file1.dat": 100})

	p, err := New(context.Background(), fc, elements, workers, 0, -1, Options{})
	require.NoError(t, err)

	var report *cluster.PacketReply
	for {
		pkt := p.NextPacket("w1", report)
		if pkt == nil {
			break
		}
		report = &cluster.PacketReply{EventsSeen: pkt.First + pkt.Num, ProcTime: 1, BytesRead: -1, TotalEntries: -1}
	}
	require.Equal(t, int64(100), p.Processed())

	p.Reset()
	require.Equal(t, int64(0), p.Processed())
	first := p.NextPacket("w1", nil)
	require.NotNil(t, first)
}

func TestNewPacketizerClampsInvalidElementRange(t *testing.T) {
	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/file1.dat", First: -5, Num: -9},
	}
	workers := []WorkerSpec{{WorkerID: "w1", Host: "host-a"}}
	fc := newFakeCluster(map[string]int64{"cluster://host-a/file1.dat": 100})

	p, err := New(context.Background(), fc, elements, workers, 0, -1, Options{})
	require.NoError(t, err)
	require.True(t, p.Valid())
	require.Equal(t, int64(100), p.TotalEntries())
}

func TestStopEndsDispatch(t *testing.T) {
	elements := []*dataset.Element{
		{FileURL: "cluster://host-a/file1.dat", Num: -1},
	}
	workers := []WorkerSpec{{WorkerID: "w1", Host: "host-a"}}
	fc := newFakeCluster(map[string]int64{"cluster://host-a/file1.dat": 100})

	p, err := New(context.Background(), fc, elements, workers, 0, -1, Options{})
	require.NoError(t, err)

	p.Stop()
	require.Nil(t, p.NextPacket("w1", nil))
}
