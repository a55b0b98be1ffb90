package dataset

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"net/url"
)

// NoHostSentinel is the FileNode host name used for Elements whose URL is
// not a valid, recognized remote URL (§6 Element URL conventions).
const NoHostSentinel = "no-host"

// localScheme and remoteScheme name the two URL schemes this module treats
// as "this is a real host, go extract it" rather than falling back to
// NoHostSentinel. A caller addressing a different storage fabric can reuse
// Element/Host unchanged so long as its URLs use one of these schemes.
const (
	localScheme  = "file"
	remoteScheme = "cluster"
)

// wireElementV3 is the legacy on-disk Element shape. Design note:
// Version-compatible serialization — new code must still be able to read
// it even though this module only writes it when WriteV3 is explicitly
// set.
type wireElementV3 struct {
	FileURL, Directory, ObjName, MSD string
	First, Num, Offset, TrueEntries  int64
}

// wireElementCurrent is the current on-disk Element shape: the legacy
// fields plus an optional Selection. The legacy fields sit in a named,
// exported field: gob skips an embedded struct of an unexported type.
type wireElementCurrent struct {
	V3             wireElementV3
	HasSelection   bool
	IndexSelection []int64
	RangeSelection []Range
}

const (
	wireVersionLegacy  byte = 3
	wireVersionCurrent byte = 4
)

// Element describes one file within a DataSet: its location, a
// [First, First+Num) sub-range of records, and (after validation) its
// true record count and cumulative offset within the dataset's logical
// record stream (§3 Data model).
type Element struct {
	FileURL   string
	Directory string
	ObjName   string
	MSD       string // mass-storage-domain tag

	First int64
	Num   int64 // -1 means "to end" until validated

	// Offset is this Element's cumulative position in the dataset's
	// logical record stream, filled in by the Validator (§4.2 step 4).
	Offset int64
	// TrueEntries is the file's actual record count, as reported by a
	// worker during validation. Zero until validated.
	TrueEntries int64

	// Selection, if non-nil, restricts this Element to a subset of the
	// records within [First, First+Num).
	Selection Selection

	// WriteV3 requests that Serialize emit the legacy wire format for
	// this Element. A packetizer built with Params.WriteV3 sets it on
	// every Element it is given.
	WriteV3 bool
}

// Host extracts the FileNode host identity for this Element, per §6
// Element URL conventions: the URL's host component, or NoHostSentinel if
// the URL doesn't parse or isn't one of the recognized schemes.
func (e *Element) Host() string {
	u, err := url.Parse(e.FileURL)
	if err != nil || u.Host == "" {
		return NoHostSentinel
	}
	if u.Scheme != localScheme && u.Scheme != remoteScheme {
		return NoHostSentinel
	}
	return u.Host
}

// Clone returns a deep-enough copy of this Element suitable for dispatch
// as an outgoing packet: the Selection, if present, is NOT restricted by
// Clone (callers carving a packet must call Selection.Restrict themselves,
// per §4.4 step 6).
func (e *Element) Clone() *Element {
	clone := *e
	return &clone
}

// Serialize encodes this Element per its own WriteV3 flag.
func (e *Element) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if e.WriteV3 {
		buf.WriteByte(wireVersionLegacy)
		enc := gob.NewEncoder(&buf)
		if err := enc.Encode(e.toWireV3()); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	buf.WriteByte(wireVersionCurrent)
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(e.toWireCurrent()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeElement reads either wire format, new or legacy.
func DeserializeElement(data []byte) (*Element, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty element payload")
	}
	version, payload := data[0], data[1:]
	dec := gob.NewDecoder(bytes.NewReader(payload))
	switch version {
	case wireVersionLegacy:
		var w wireElementV3
		if err := dec.Decode(&w); err != nil {
			return nil, err
		}
		e := fromWireV3(w)
		e.WriteV3 = true
		return e, nil
	case wireVersionCurrent:
		var w wireElementCurrent
		if err := dec.Decode(&w); err != nil {
			return nil, err
		}
		return fromWireCurrent(w), nil
	default:
		return nil, fmt.Errorf("unrecognized element wire version %d", version)
	}
}

func (e *Element) toWireV3() wireElementV3 {
	return wireElementV3{
		FileURL: e.FileURL, Directory: e.Directory, ObjName: e.ObjName, MSD: e.MSD,
		First: e.First, Num: e.Num, Offset: e.Offset, TrueEntries: e.TrueEntries,
	}
}

func fromWireV3(w wireElementV3) *Element {
	return &Element{
		FileURL: w.FileURL, Directory: w.Directory, ObjName: w.ObjName, MSD: w.MSD,
		First: w.First, Num: w.Num, Offset: w.Offset, TrueEntries: w.TrueEntries,
	}
}

func (e *Element) toWireCurrent() wireElementCurrent {
	w := wireElementCurrent{V3: e.toWireV3()}
	switch sel := e.Selection.(type) {
	case *IndexSelection:
		w.HasSelection = true
		w.IndexSelection = sel.Indices
	case *RangeSelection:
		w.HasSelection = true
		w.RangeSelection = sel.Ranges
	}
	return w
}

func fromWireCurrent(w wireElementCurrent) *Element {
	e := fromWireV3(w.V3)
	if w.HasSelection {
		if len(w.RangeSelection) > 0 {
			e.Selection = &RangeSelection{Ranges: w.RangeSelection}
		} else {
			e.Selection = &IndexSelection{Indices: w.IndexSelection}
		}
	}
	return e
}
