package cluster

import "context"

// Cluster is the packetizer's only dependency on the outside world: a
// typed message channel to each worker. It is injected at construction
// (design note: Global state) rather than reached for through a process
// global, the way the reference algorithm's TProof singleton was.
//
// Implementations own the actual socket framing, retries, and worker
// bookkeeping; the packetizer only ever calls Send, WaitAny, MarkBad and
// Notify, and only during the Validator's pre-flight exchange (§4.2). The main
// NextPacket dispatch loop never touches the Cluster: packet replies
// arrive already decoded, as an argument to NextPacket.
type Cluster interface {
	// Send delivers a GET_ENTRIES request to the named worker.
	Send(ctx context.Context, workerID string, req *GetEntriesRequest) error
	// WaitAny blocks until any previously-Send-to worker has a reply
	// ready, analogous to a select()/poll() over worker sockets, and
	// returns which worker it was along with the decoded reply. It
	// returns a non-nil error only on a transport failure (a dead
	// socket, not a well-formed but unwelcome message kind — those
	// come back as a KindUnexpected/KindFatal ValidationReply).
	WaitAny(ctx context.Context) (workerID string, reply *ValidationReply, err error)
	// MarkBad tells the Cluster this worker should be considered dead and
	// removed from future scheduling. The packetizer calls this on any
	// transport failure or FATAL, but does not itself stop talking to
	// other workers — MarkBad is advisory to the transport, while the
	// packetizer's own response to a fatal validation failure is to
	// invalidate itself entirely (§4.2 Failure semantics).
	MarkBad(workerID string)
	// Notify delivers a master-to-client MESSAGE, e.g. to report a file
	// dropped during validation (§6, §7). It never blocks the Validator on
	// the client actually receiving it.
	Notify(ctx context.Context, msg *ClientMessage)
}
