package cluster

import (
	"bytes"
	"io/ioutil"

	"github.com/pierrec/lz4"
)

// CompressLogBlob LZ4-frames a raw log-stream blob before it's attached to
// a LogFileMessage. Mirrors the reference implementation's own rule that
// bulk byte payloads crossing a node boundary are always LZ4-framed
// (internal/partition/lz4_partition_compressor.go), rather than passed
// raw.
func CompressLogBlob(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressLogBlob reverses CompressLogBlob.
func DecompressLogBlob(framed []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(framed))
	return ioutil.ReadAll(r)
}
