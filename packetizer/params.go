package packetizer

import "runtime"

// Params configures a Packetizer's scheduling policy. The zero value is
// valid input to New; ensureDefaultParamsValues fills in anything left
// unset.
type Params struct {
	// MaxWorkersPerNode caps how many workers may process files hosted on
	// the same node concurrently, counting only workers not native to
	// that node. Defaults to the number of logical CPUs, minimum 2.
	MaxWorkersPerNode int

	// HDFasterThanNetwork selects the FileNode comparator: by default
	// (false) the packetizer assumes network bandwidth is the scarcer
	// resource and ranks nodes primarily by running-worker count; set
	// this to true on clusters where local disk throughput is the
	// bottleneck instead.
	HDFasterThanNetwork bool

	// BaseLocalPreference biases a worker toward its own node's files
	// over remote ones; 1.2 (the default) means a worker needs its local
	// node to offer noticeably fewer events-per-worker before it will
	// pick up a remote file instead.
	BaseLocalPreference float64

	// WriteV3 requests the legacy Element wire format from Serialize,
	// for callers persisting packet state alongside an older fleet: New
	// sets Element.WriteV3 on every Element it is given.
	WriteV3 bool
}

func ensureDefaultParamsValues(p *Params) {
	if p.MaxWorkersPerNode == 0 {
		p.MaxWorkersPerNode = runtime.NumCPU()
		if p.MaxWorkersPerNode < 2 {
			p.MaxWorkersPerNode = 2
		}
	}
	if p.BaseLocalPreference == 0 {
		p.BaseLocalPreference = 1.2
	}
}
