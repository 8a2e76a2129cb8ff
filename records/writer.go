package records

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Writer creates a record file frame by frame. Close must be called to flush
// the compression stream.
type Writer struct {
	file  *os.File
	codec io.Writer
	buf   bytes.Buffer
}

// Create opens path for writing and emits the stream header. The compression
// codec is picked from the file extension.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create record file %s: %w", path, err)
	}

	w := &Writer{file: f}
	switch {
	case strings.HasSuffix(path, ".gz"):
		w.codec = gzip.NewWriter(f)
	case strings.HasSuffix(path, ".xz"):
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open xz stream for %s: %w", path, err)
		}
		w.codec = xw
	default:
		w.codec = f
	}

	if _, err := w.codec.Write(magic[:]); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.codec.Write([]byte{formatVersion}); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return w, nil
}

// Append writes one record as a framed, checksummed gob payload.
func (w *Writer) Append(rec Record) error {
	if len(rec) == 0 {
		return fmt.Errorf("refusing to write empty record")
	}
	w.buf.Reset()
	if err := gob.NewEncoder(&w.buf).Encode(rec); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	payload := w.buf.Bytes()
	if len(payload) > maxFrameSize {
		return fmt.Errorf("record frame too large: %d bytes", len(payload))
	}

	var frame [8]byte
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(frame[4:8], crc32.ChecksumIEEE(payload))
	if _, err := w.codec.Write(frame[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.codec.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}
	return nil
}

// Close flushes the compression stream and closes the file.
func (w *Writer) Close() error {
	var codecErr error
	if c, ok := w.codec.(io.Closer); ok && w.codec != io.Writer(w.file) {
		codecErr = c.Close()
	}
	fileErr := w.file.Close()
	if codecErr != nil {
		return fmt.Errorf("failed to flush record stream: %w", codecErr)
	}
	return fileErr
}
