package records

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// This package reads and writes the sample record files the dataset
// pipelines are fed from. A record file is a compressed stream holding a
// short header followed by length-prefixed, checksummed frames; every frame
// decodes to one Record, a map from band name to its flat float32 values.
//
// Compression is chosen by file extension: ".gz" for gzip (the default the
// export jobs produce), ".xz" for xz, anything else is stored raw.

// Record maps band names to their flat values. A patch band holds
// patch*patch values in row-major order, a pixel band exactly one.
type Record map[string][]float32

var (
	ErrNotRecordFile = errors.New("not a record file")
	ErrCorrupt       = errors.New("corrupt record frame")
	ErrNoFiles       = errors.New("no record files match pattern")
)

// magic identifies a record stream, followed by a single format version byte.
var magic = [4]byte{'t', 'r', 'f', 'd'}

const formatVersion = 1

// maxFrameSize bounds a single frame so a corrupted length prefix fails fast
// instead of attempting a huge allocation.
const maxFrameSize = 1 << 30

// List expands a glob pattern into a sorted list of record file paths. An
// empty match set is an error: a dataset with no files is always a
// misconfiguration.
func List(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	sort.Strings(files)
	return files, nil
}
