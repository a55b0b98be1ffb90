package packetizer

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/rbrun/packetize/cluster"
	pkgerrors "github.com/rbrun/packetize/errors"
)

// validate runs the one-shot pre-flight exchange: confirm each file
// opens, learn its true record count, let a worker report a corrected
// object name after a redirect, and compute each surviving Element's
// cumulative offset.
//
// It is the only place this package talks to a Cluster; NextPacket never
// touches it.
func (p *Packetizer) validate(ctx context.Context, c cluster.Cluster) error {
	ready := make([]*WorkerStat, 0, len(p.workers))
	for _, w := range p.workers {
		ready = append(ready, w)
	}
	inFlight := map[string]*WorkerStat{} // workerID -> worker

	var failures *multierror.Error

	for {
		for len(ready) > 0 {
			w := ready[0]
			ready = ready[1:]

			file := p.nextUnallocFrom(w.GetFileNode())
			if file == nil {
				continue
			}
			w.curFile = file
			file.Node().IncExtSlaveCnt(w.WorkerHost)

			req := &cluster.GetEntriesRequest{
				IsTree:    p.isTree,
				FileURL:   file.Element.FileURL,
				Directory: file.Element.Directory,
				ObjName:   file.Element.ObjName,
			}
			if err := c.Send(ctx, w.WorkerID, req); err != nil {
				failures = multierror.Append(failures, pkgerrors.TransportError{WorkerID: w.WorkerID, Reason: err.Error()})
				c.MarkBad(w.WorkerID)
				p.valid = false
				continue
			}
			inFlight[w.WorkerID] = w
		}

		if len(inFlight) == 0 {
			break
		}

		workerID, reply, err := c.WaitAny(ctx)
		if err != nil {
			delete(inFlight, workerID)
			failures = multierror.Append(failures, pkgerrors.TransportError{WorkerID: workerID, Reason: err.Error()})
			c.MarkBad(workerID)
			p.valid = false
			continue
		}

		w, ok := inFlight[workerID]
		if !ok {
			continue
		}

		switch reply.Kind {
		case cluster.KindLogFile:
			if reply.LogFile != nil {
				payload, derr := cluster.DecompressLogBlob(reply.LogFile.Blob)
				if derr != nil {
					if p.log != nil {
						p.log.Warn("validator: failed to decompress log blob", zap.String("worker", workerID), zap.Error(derr))
					}
				} else if p.log != nil {
					p.log.Debug("validator: forwarding log blob", zap.String("worker", workerID), zap.ByteString("log", payload))
				}
			}
			continue
		case cluster.KindLogDone:
			continue
		case cluster.KindFatal:
			failures = multierror.Append(failures, pkgerrors.TransportError{WorkerID: workerID, Reason: "worker reported fatal error"})
			c.MarkBad(workerID)
			p.valid = false
			delete(inFlight, workerID)
			continue
		case cluster.KindGetEntriesReply:
			// handled below
		default:
			failures = multierror.Append(failures, pkgerrors.TransportError{WorkerID: workerID, Reason: fmt.Sprintf("unexpected message kind %d", reply.Kind)})
			c.MarkBad(workerID)
			p.valid = false
			delete(inFlight, workerID)
			continue
		}

		delete(inFlight, workerID)
		file := w.curFile
		file.Node().DecExtSlaveCnt(w.WorkerHost)

		elem := file.Element
		entries := reply.Entries.Entries
		if reply.Entries.ObjName != "" {
			elem.ObjName = reply.Entries.ObjName
		}
		elem.TrueEntries = entries

		if entries > 0 {
			if elem.Selection == nil {
				if elem.First > entries {
					verr := pkgerrors.ValidationError{
						File:   elem.FileURL,
						Reason: fmt.Sprintf("first (%d) beyond entries (%d)", elem.First, entries),
					}
					file.setDone()
					p.dropped[elem] = true
					if p.log != nil {
						p.log.Warn("validator: dropping out-of-range file", zap.String("file", elem.FileURL))
					}
					c.Notify(ctx, &cluster.ClientMessage{Text: verr.Error()})
				} else if elem.Num == -1 {
					elem.Num = entries - elem.First
				} else if elem.First+elem.Num > entries {
					elem.Num = entries - elem.First
				}
			}
		} else {
			p.dropped[elem] = true
			reason := fmt.Sprintf("dropping %s: reported %d entries", elem.FileURL, entries)
			if p.log != nil {
				p.log.Warn("validator: dropping unreadable file", zap.String("file", elem.FileURL))
			}
			c.Notify(ctx, &cluster.ClientMessage{Text: reason})
		}

		ready = append(ready, w)
	}

	if !p.valid {
		if failures != nil {
			return failures.ErrorOrNil()
		}
		return pkgerrors.ValidationError{Reason: "packetizer invalidated during validation"}
	}

	// Walk surviving Elements in the caller's original input order, not
	// completion order (see applyWindow), so each Element's cumulative
	// offset reflects its actual position in the dataset's logical record
	// stream rather than whichever worker answered first.
	p.validated = p.validated[:0]
	var offset int64
	for _, e := range p.rawElements {
		if p.dropped[e] {
			continue
		}
		p.validated = append(p.validated, e)
		pre := e.TrueEntries
		e.Offset = offset
		offset += pre
	}

	return failures.ErrorOrNil()
}

// nextUnallocFrom returns the next unallocated file from node, or, if
// node is nil or exhausted, the next unallocated file on any other node
// in comparator order.
func (p *Packetizer) nextUnallocFrom(node *FileNode) *FileStat {
	if node != nil {
		if file := node.GetNextUnAlloc(); file != nil {
			return file
		}
	}
	return p.getNextUnalloc()
}
