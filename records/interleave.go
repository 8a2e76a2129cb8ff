package records

import (
	"io"
	"runtime"
	"sync"
)

// Sequence streams the records of a set of files. Files are read
// concurrently by a bounded worker pool into a shared channel, so records of
// one file keep their order while records of different files arrive
// interleaved in no particular order. The first decode error aborts the
// whole sequence.
//
// A Sequence is pulled from a single goroutine; it is not safe for
// concurrent consumers.
type Sequence struct {
	files   []string
	workers int

	cur  *pass
	err  error
	done bool
}

type result struct {
	rec Record
	err error
}

// pass is one traversal of the file set. Reset tears the current pass down
// and starts a fresh one.
type pass struct {
	out  chan result
	quit chan struct{}
	stop sync.Once
}

func (p *pass) abort() {
	p.stop.Do(func() { close(p.quit) })
}

// Interleave starts reading files with the given number of workers.
// workers <= 0 means one per CPU; the pool never exceeds the file count.
func Interleave(files []string, workers int) *Sequence {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}
	s := &Sequence{
		files:   append([]string(nil), files...),
		workers: workers,
	}
	s.start()
	return s
}

// Files returns the file set this sequence reads.
func (s *Sequence) Files() []string {
	return append([]string(nil), s.files...)
}

func (s *Sequence) start() {
	p := &pass{
		out:  make(chan result, s.workers),
		quit: make(chan struct{}),
	}
	s.cur = p
	s.err = nil
	s.done = false

	jobs := make(chan string, len(s.files))
	for _, f := range s.files {
		jobs <- f
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(s.workers)
	for range s.workers {
		go func() {
			defer wg.Done()
			for path := range jobs {
				if !readInto(p, path) {
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(p.out)
	}()
}

// readInto streams one file into the pass. It returns false when the pass is
// being torn down or the file failed.
func readInto(p *pass, path string) bool {
	r, err := Open(path)
	if err != nil {
		failPass(p, err)
		return false
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if err == io.EOF {
			return true
		}
		if err != nil {
			failPass(p, err)
			return false
		}
		select {
		case p.out <- result{rec: rec}:
		case <-p.quit:
			return false
		}
	}
}

func failPass(p *pass, err error) {
	select {
	case p.out <- result{err: err}:
	case <-p.quit:
	}
	p.abort()
}

// Next returns the next record from any file, or io.EOF once every file has
// been fully read. After an error the sequence is dead and keeps returning
// the same error until Reset.
func (s *Sequence) Next() (Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.done {
		return nil, io.EOF
	}
	res, ok := <-s.cur.out
	if !ok {
		s.done = true
		return nil, io.EOF
	}
	if res.err != nil {
		s.err = res.err
		s.teardown()
		return nil, s.err
	}
	return res.rec, nil
}

// Reset aborts any in-flight reads and starts a new pass over the same
// files.
func (s *Sequence) Reset() error {
	s.teardown()
	s.start()
	return nil
}

// Close aborts the sequence and releases its workers.
func (s *Sequence) Close() error {
	s.teardown()
	return nil
}

// teardown stops the current pass and waits for its workers to finish.
func (s *Sequence) teardown() {
	s.cur.abort()
	for range s.cur.out {
	}
	s.done = true
}
