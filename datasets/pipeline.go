package datasets

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Noofbiz/terraFeed/config"
	"github.com/Noofbiz/terraFeed/records"
	"github.com/Noofbiz/terraFeed/spectral"
	"github.com/Noofbiz/terraFeed/tensor"
)

// stream is one stage of a pipeline. Stages wrap each other, each pulling
// from the one below, so a Dataset is the top of a chain that bottoms out
// at a record sequence. A stream is pulled from a single goroutine.
type stream interface {
	// Next returns the next sample, or io.EOF once the pass is over.
	Next() (*Sample, error)
	// Reset rewinds the stage and everything below it for another pass.
	Reset() error
	// Close releases the stage and everything below it.
	Close() error
}

// newRand seeds a generator for shuffling and transform draws. Seed zero
// means a fresh sequence every run.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// source parses the records of a sequence into samples. A parse failure is
// sticky until Reset.
type source struct {
	seq   *records.Sequence
	parse ParseFunc
	err   error
}

func (s *source) Next() (*Sample, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, err := s.seq.Next()
	if err != nil {
		return nil, err
	}
	sample, err := s.parse(rec)
	if err != nil {
		s.err = err
		return nil, err
	}
	return sample, nil
}

func (s *source) Reset() error {
	s.err = nil
	return s.seq.Reset()
}

func (s *source) Close() error {
	return s.seq.Close()
}

// mapped applies a tuple function to every sample of its source.
type mapped struct {
	src stream
	fn  TupleFunc
	err error
}

func (m *mapped) Next() (*Sample, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, err := m.src.Next()
	if err != nil {
		return nil, err
	}
	out, err := m.fn(s)
	if err != nil {
		m.err = err
		return nil, err
	}
	return out, nil
}

func (m *mapped) Reset() error {
	m.err = nil
	return m.src.Reset()
}

func (m *mapped) Close() error {
	return m.src.Close()
}

// derive swaps a raw composite for the feature stack computed from it.
func derive(stack func(*tensor.Tensor) (*tensor.Tensor, error)) TupleFunc {
	return func(s *Sample) (*Sample, error) {
		if s.Features == nil {
			return nil, fmt.Errorf("derived features need a stacked composite")
		}
		feats, err := stack(s.Features)
		if err != nil {
			return nil, fmt.Errorf("failed to derive features: %w", err)
		}
		return &Sample{Features: feats, Label: s.Label}, nil
	}
}

// shuffle yields samples in random order from a bounded buffer. The buffer
// fills from the source, then every draw hands out a random slot and
// refills it with the next upstream sample. The generator keeps advancing
// across passes, so each iteration reshuffles.
type shuffle struct {
	src    stream
	size   int
	rng    *rand.Rand
	buf    []*Sample
	primed bool
}

func (s *shuffle) Next() (*Sample, error) {
	if !s.primed {
		for len(s.buf) < s.size {
			sample, err := s.src.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				s.buf = nil
				return nil, err
			}
			s.buf = append(s.buf, sample)
		}
		s.primed = true
	}
	if len(s.buf) == 0 {
		return nil, io.EOF
	}
	i := s.rng.Intn(len(s.buf))
	out := s.buf[i]
	next, err := s.src.Next()
	if err == io.EOF {
		last := len(s.buf) - 1
		s.buf[i] = s.buf[last]
		s.buf[last] = nil
		s.buf = s.buf[:last]
		return out, nil
	}
	if err != nil {
		s.buf = nil
		return nil, err
	}
	s.buf[i] = next
	return out, nil
}

func (s *shuffle) Reset() error {
	s.buf = nil
	s.primed = false
	return s.src.Reset()
}

func (s *shuffle) Close() error {
	return s.src.Close()
}

// batch stacks consecutive samples along a new leading axis. The last batch
// of a pass keeps whatever is left over, so it may be short.
type batch struct {
	src  stream
	size int
	err  error
}

func (b *batch) Next() (*Sample, error) {
	if b.err != nil {
		return nil, b.err
	}
	group := make([]*Sample, 0, b.size)
	for len(group) < b.size {
		s, err := b.src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			b.err = err
			return nil, err
		}
		group = append(group, s)
	}
	if len(group) == 0 {
		return nil, io.EOF
	}
	out, err := stackSamples(group)
	if err != nil {
		b.err = err
		return nil, err
	}
	return out, nil
}

func (b *batch) Reset() error {
	b.err = nil
	return b.src.Reset()
}

func (b *batch) Close() error {
	return b.src.Close()
}

// stackSamples stacks every component the first sample carries across the
// whole group.
func stackSamples(group []*Sample) (*Sample, error) {
	first := group[0]
	out := &Sample{Order: first.Order}
	if first.Features != nil {
		parts := make([]*tensor.Tensor, len(group))
		for i, s := range group {
			if s.Features == nil {
				return nil, fmt.Errorf("failed to batch samples: sample %d has no composite", i)
			}
			parts[i] = s.Features
		}
		stacked, err := tensor.Stack(parts)
		if err != nil {
			return nil, fmt.Errorf("failed to batch composites: %w", err)
		}
		out.Features = stacked
	}
	if first.Named != nil {
		out.Named = make(map[string]*tensor.Tensor, len(first.Named))
		for _, key := range first.Order {
			parts := make([]*tensor.Tensor, len(group))
			for i, s := range group {
				band, ok := s.Named[key]
				if !ok {
					return nil, fmt.Errorf("failed to batch samples: sample %d is missing band %q", i, key)
				}
				parts[i] = band
			}
			stacked, err := tensor.Stack(parts)
			if err != nil {
				return nil, fmt.Errorf("failed to batch band %q: %w", key, err)
			}
			out.Named[key] = stacked
		}
	}
	if first.Label != nil {
		parts := make([]*tensor.Tensor, len(group))
		for i, s := range group {
			if s.Label == nil {
				return nil, fmt.Errorf("failed to batch samples: sample %d has no label", i)
			}
			parts[i] = s.Label
		}
		stacked, err := tensor.Stack(parts)
		if err != nil {
			return nil, fmt.Errorf("failed to batch labels: %w", err)
		}
		out.Label = stacked
	}
	return out, nil
}

// defaultPrefetchDepth is how many batches a pipeline keeps ready ahead of
// the consumer.
const defaultPrefetchDepth = 2

type fetchResult struct {
	sample *Sample
	err    error
}

// fetchPass is one background traversal of the upstream stages. Reset tears
// the current pass down and the next pull starts a fresh one.
type fetchPass struct {
	out  chan fetchResult
	quit chan struct{}
	stop sync.Once
}

func (p *fetchPass) abort() {
	p.stop.Do(func() { close(p.quit) })
}

// prefetch pulls samples ahead of the consumer on a background goroutine.
// An upstream error ends the pass and is sticky until Reset.
type prefetch struct {
	src   stream
	depth int
	cur   *fetchPass
	err   error
	done  bool
}

func (p *prefetch) start() {
	pass := &fetchPass{
		out:  make(chan fetchResult, p.depth),
		quit: make(chan struct{}),
	}
	p.cur = pass
	go func() {
		defer close(pass.out)
		for {
			s, err := p.src.Next()
			select {
			case pass.out <- fetchResult{sample: s, err: err}:
			case <-pass.quit:
				return
			}
			if err != nil {
				return
			}
		}
	}()
}

func (p *prefetch) Next() (*Sample, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.done {
		return nil, io.EOF
	}
	if p.cur == nil {
		p.start()
	}
	res, ok := <-p.cur.out
	if !ok {
		p.done = true
		return nil, io.EOF
	}
	if res.err != nil {
		p.done = true
		if res.err != io.EOF {
			p.err = res.err
		}
		return nil, res.err
	}
	return res.sample, nil
}

func (p *prefetch) Reset() error {
	p.teardown()
	p.err = nil
	p.done = false
	return p.src.Reset()
}

func (p *prefetch) Close() error {
	p.teardown()
	return p.src.Close()
}

// teardown stops the current pass and drains it so the goroutine exits.
func (p *prefetch) teardown() {
	if p.cur == nil {
		return
	}
	p.cur.abort()
	for range p.cur.out {
	}
	p.cur = nil
}

// New opens the record files matching pattern and builds the full input
// pipeline for the model family cfg selects: parse, encode, shuffle when
// training, batch, optionally transform and derive features, and prefetch.
// Pixel pipelines never shuffle spatially nor transform; serving pipelines
// keep their bands named so exported signatures can bind them.
func New(pattern string, cfg *config.Config) (*Dataset, error) {
	files, err := records.List(pattern)
	if err != nil {
		return nil, err
	}
	slog.Info("loading dataset", "pattern", pattern, "files", len(files))

	var (
		parse ParseFunc
		tuple TupleFunc
	)
	switch {
	case cfg.DNN && cfg.AIPlatform:
		parse = ParsePixel(cfg.Features, cfg.Labels)
		tuple = TuplePixelServing(cfg.NClasses)
	case cfg.DNN:
		parse = ParsePixel(cfg.Features, cfg.Labels)
		tuple = TuplePixel(cfg.NClasses)
	case cfg.AIPlatform:
		parse = ParseLabeled(cfg.Features, cfg.Labels, cfg.PatchSize)
		tuple = TupleLabeledServing(cfg.NClasses)
	default:
		parse = ParseLabeled(cfg.Features, cfg.Labels, cfg.PatchSize)
		tuple = TupleLabeled(cfg.NClasses, false)
	}

	var src stream = &source{
		seq:   records.Interleave(files, cfg.Workers),
		parse: parse,
	}
	src = &mapped{src: src, fn: tuple}
	if cfg.Training {
		src = &shuffle{src: src, size: cfg.BufferSize, rng: newRand(cfg.Seed)}
	}
	src = &batch{src: src, size: cfg.BatchSize}
	if cfg.Training && cfg.TransformData && !cfg.DNN {
		slog.Info("randomly transforming data")
		src = &transformStage{src: src, rng: newRand(cfg.Seed)}
	}
	if cfg.DerivedFeatures {
		stack := spectral.StackForCNN
		if cfg.DNN {
			stack = spectral.StackForDNN
		}
		src = &mapped{src: src, fn: derive(stack)}
	}
	src = &prefetch{src: src, depth: defaultPrefetchDepth}

	return &Dataset{name: pattern, src: src}, nil
}

// Options selects the pipeline shape FromFiles builds. The zero value is an
// evaluation pipeline over stacked composites.
type Options struct {
	// DNN reads single pixels instead of patches.
	DNN bool
	// MultiLabelUNet keeps bands named through parsing and one-hot encodes
	// the class map.
	MultiLabelUNet bool
	// InverseLabels prepends the complement of the label plane, for
	// two-channel binary outputs.
	InverseLabels bool
	// Depth is the one-hot depth. Zero means one channel per label name.
	Depth int
	// BufferSize overrides the training shuffle buffer. Zero means 1000.
	BufferSize int
	// Training shuffles and randomly transforms patches.
	Training bool
}

// FromFiles builds a pipeline over an explicit file list instead of a glob
// pattern. Patch pipelines parse first and encode after batching, so random
// transforms act on raw bands with the class plane still aligned; pixel
// pipelines just parse, encode and batch.
func FromFiles(files []string, cfg *config.Config, opts Options) (*Dataset, error) {
	if len(files) == 0 {
		return nil, records.ErrNoFiles
	}
	depth := opts.Depth
	if depth == 0 {
		depth = len(cfg.Labels)
	}
	buffer := opts.BufferSize
	if buffer == 0 {
		buffer = 1000
	}
	name := fmt.Sprintf("records[%d files]", len(files))

	if opts.DNN {
		var src stream = &source{
			seq:   records.Interleave(files, cfg.Workers),
			parse: ParsePixel(cfg.Features, cfg.Labels),
		}
		src = &mapped{src: src, fn: TuplePixel(depth)}
		src = &batch{src: src, size: cfg.BatchSize}
		return &Dataset{name: name, src: src}, nil
	}

	var (
		parse ParseFunc
		tuple TupleFunc
	)
	if opts.MultiLabelUNet {
		parse = ParseLabeled(cfg.Features, cfg.Labels, cfg.PatchSize)
		tuple = TupleLabeled(depth, false)
	} else {
		parse = ParseStacked(cfg.Features, cfg.Labels, cfg.PatchSize)
		tuple = TupleStacked(len(cfg.Features), opts.InverseLabels)
	}

	var src stream = &source{
		seq:   records.Interleave(files, cfg.Workers),
		parse: parse,
	}
	if opts.Training {
		src = &shuffle{src: src, size: buffer, rng: newRand(cfg.Seed)}
		src = &batch{src: src, size: cfg.BatchSize}
		src = &transformStage{src: src, rng: newRand(cfg.Seed)}
	} else {
		src = &batch{src: src, size: cfg.BatchSize}
	}
	src = &mapped{src: src, fn: tuple}

	return &Dataset{name: name, src: src}, nil
}
