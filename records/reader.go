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

// Reader decodes one record file sequentially. Next returns io.EOF after the
// last frame; any malformed frame is fatal for the whole file.
type Reader struct {
	path   string
	file   *os.File
	codec  io.Reader
	closer io.Closer // gzip stream, when one is open
}

// Open opens a record file and validates its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file %s: %w", path, err)
	}

	r := &Reader{path: path, file: f}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrNotRecordFile, path, err)
		}
		r.codec = gz
		r.closer = gz
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrNotRecordFile, path, err)
		}
		r.codec = xr
	default:
		r.codec = f
	}

	var header [5]byte
	if _, err := io.ReadFull(r.codec, header[:]); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: %s: short header", ErrNotRecordFile, path)
	}
	if !bytes.Equal(header[:4], magic[:]) {
		r.Close()
		return nil, fmt.Errorf("%w: %s: bad signature", ErrNotRecordFile, path)
	}
	if header[4] != formatVersion {
		r.Close()
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrNotRecordFile, path, header[4])
	}
	return r, nil
}

// Next decodes the next record. It returns io.EOF exactly at a clean end of
// stream; a truncated or corrupted frame is reported as ErrCorrupt.
func (r *Reader) Next() (Record, error) {
	var frame [8]byte
	if _, err := io.ReadFull(r.codec, frame[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %s: truncated frame header", ErrCorrupt, r.path)
	}
	length := binary.LittleEndian.Uint32(frame[0:4])
	sum := binary.LittleEndian.Uint32(frame[4:8])
	if length == 0 || length > maxFrameSize {
		return nil, fmt.Errorf("%w: %s: implausible frame length %d", ErrCorrupt, r.path, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.codec, payload); err != nil {
		return nil, fmt.Errorf("%w: %s: truncated frame payload", ErrCorrupt, r.path)
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, fmt.Errorf("%w: %s: checksum mismatch", ErrCorrupt, r.path)
	}

	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, r.path, err)
	}
	return rec, nil
}

// Close closes the compression stream and the underlying file.
func (r *Reader) Close() error {
	if r.closer != nil {
		r.closer.Close()
	}
	return r.file.Close()
}
