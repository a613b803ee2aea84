package join

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/config"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/primitives"
	"sqlcore/pkg/storage/rowfile"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// HashConfig tunes a HashJoin.
type HashConfig struct {
	// BuildOuter builds the hash table on the outer input instead of the
	// inner one.
	BuildOuter bool

	// MaxBuildRows bounds the in-memory table; 0 means unbounded. Past the
	// bound both inputs are partitioned into Partitions spill files each.
	MaxBuildRows int
	Partitions   int

	Dir   string
	Codec config.SpillCodec
}

// HashConfigFrom derives a HashConfig from the execution settings.
func HashConfigFrom(cfg config.Execution, buildOuter bool) HashConfig {
	return HashConfig{
		BuildOuter:   buildOuter,
		MaxBuildRows: cfg.HashBuildMaxRows,
		Partitions:   cfg.HashPartitions,
		Dir:          cfg.SpillDir(),
		Codec:        cfg.SpillCodec,
	}
}

type hashEntry struct {
	key []types.Field
	t   *tuple.Tuple
}

// partition is one pair of spill files of a grace hash join.
type partition struct {
	build *rowfile.Writer
	probe *rowfile.Writer
}

// HashJoin implements an equi-join by building a hash table on one input
// and probing it with the other. Keys containing NULL never match. The
// residual part of the condition is checked on every key match.
type HashJoin struct {
	*iterator.BinaryOperator
	cond *Condition
	out  *output
	cfg  HashConfig

	table   map[primitives.HashCode][]*hashEntry
	built   bool
	matches matchBuffer

	// grace mode
	partitions []*partition
	current    int
	reader     *rowfile.Reader
}

func NewHashJoin(outer, inner iterator.DbIterator, cond *Condition, cfg HashConfig, opts Options) (*HashJoin, error) {
	if !cond.HasEquiKeys() {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"hash join needs at least one equality key").
			WithHint("use a nested loop join for non-equi conditions")
	}
	if cfg.MaxBuildRows > 0 && cfg.Partitions < 2 {
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeInvalidConfig,
			"hash join needs at least 2 partitions, got %d", cfg.Partitions)
	}
	out, err := newOutput(cond, opts.Targets)
	if err != nil {
		return nil, err
	}

	j := &HashJoin{cond: cond, out: out, cfg: cfg}
	op, err := iterator.NewBinaryOperator(outer, inner, out.schema, j.readNext)
	if err != nil {
		return nil, err
	}
	j.BinaryOperator = op
	return j, nil
}

// BuildsOuter reports whether the hash table is built on the outer input.
func (j *HashJoin) BuildsOuter() bool { return j.cfg.BuildOuter }

// Partitioned reports whether the join spilled to disk.
func (j *HashJoin) Partitioned() bool { return len(j.partitions) > 0 }

func (j *HashJoin) buildSide() iterator.DbIterator {
	if j.cfg.BuildOuter {
		return j.Outer()
	}
	return j.Inner()
}

func (j *HashJoin) probeSide() iterator.DbIterator {
	if j.cfg.BuildOuter {
		return j.Inner()
	}
	return j.Outer()
}

func (j *HashJoin) buildKey(t *tuple.Tuple) ([]types.Field, bool, error) {
	if j.cfg.BuildOuter {
		return j.cond.OuterKey(t)
	}
	return j.cond.InnerKey(t)
}

func (j *HashJoin) probeKey(t *tuple.Tuple) ([]types.Field, bool, error) {
	if j.cfg.BuildOuter {
		return j.cond.InnerKey(t)
	}
	return j.cond.OuterKey(t)
}

func (j *HashJoin) buildSchema() *catalog.Schema { return j.buildSide().Schema() }
func (j *HashJoin) probeSchema() *catalog.Schema { return j.probeSide().Schema() }

func (j *HashJoin) insert(key []types.Field, t *tuple.Tuple) {
	h := types.HashFields(key)
	j.table[h] = append(j.table[h], &hashEntry{key: key, t: t})
}

// build loads the build side. When it outgrows MaxBuildRows the join
// switches to partitioned mode.
func (j *HashJoin) build() error {
	j.table = make(map[primitives.HashCode][]*hashEntry)
	rows := 0

	for {
		t, err := fetch(j.buildSide())
		if err != nil {
			return err
		}
		if t == nil {
			break
		}
		key, ok, err := j.buildKey(t)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		j.insert(key, t)
		rows++
		if j.cfg.MaxBuildRows > 0 && rows > j.cfg.MaxBuildRows {
			if err := j.partition(); err != nil {
				return err
			}
			break
		}
	}

	j.built = true
	logging.WithOperator("HashJoin").Debug("build side loaded",
		"rows", rows,
		"buildOuter", j.cfg.BuildOuter,
		"partitions", len(j.partitions))
	return nil
}

// partition spills the table built so far, the rest of the build side and
// the whole probe side into hash partitions, then loads the first one.
func (j *HashJoin) partition() error {
	log := logging.WithOperator("HashJoin")
	log.Debug("build side exceeds memory limit, partitioning",
		"limit", j.cfg.MaxBuildRows,
		"partitions", j.cfg.Partitions)

	j.partitions = make([]*partition, j.cfg.Partitions)
	for i := range j.partitions {
		p := &partition{}
		j.partitions[i] = p
		var err error
		if p.build, err = rowfile.CreateTemp(j.cfg.Dir, "hash-build-*.part", j.cfg.Codec); err != nil {
			return err
		}
		if p.probe, err = rowfile.CreateTemp(j.cfg.Dir, "hash-probe-*.part", j.cfg.Codec); err != nil {
			return err
		}
	}
	metrics.HashPartitions.Add(float64(len(j.partitions)))

	n := primitives.HashCode(len(j.partitions))
	for h, entries := range j.table {
		for _, e := range entries {
			if err := j.partitions[h%n].build.WriteTuple(e.t); err != nil {
				return err
			}
		}
	}
	j.table = nil

	spill := func(side iterator.DbIterator, key func(*tuple.Tuple) ([]types.Field, bool, error), file func(*partition) *rowfile.Writer) error {
		return iterator.ForEach(side, func(t *tuple.Tuple) error {
			k, ok, err := key(t)
			if err != nil || !ok {
				return err
			}
			return file(j.partitions[types.HashFields(k)%n]).WriteTuple(t)
		})
	}
	if err := spill(j.buildSide(), j.buildKey, func(p *partition) *rowfile.Writer { return p.build }); err != nil {
		return err
	}
	if err := spill(j.probeSide(), j.probeKey, func(p *partition) *rowfile.Writer { return p.probe }); err != nil {
		return err
	}

	var size int64
	for _, p := range j.partitions {
		if err := errors.CombineErrors(p.build.Close(), p.probe.Close()); err != nil {
			return dberror.Wrap(err, dberror.CodeSpill, "HashJoin.partition", "HashJoin")
		}
		size += p.build.Size() + p.probe.Size()
	}
	metrics.SpillRuns.WithLabelValues("HashJoin").Add(float64(2 * len(j.partitions)))
	metrics.SpillBytes.WithLabelValues("HashJoin").Add(float64(size))
	log.Debug("partitions written", "size", humanize.Bytes(uint64(size)))

	j.current = -1
	return j.nextPartition()
}

// nextPartition loads the build file of the next partition into the table
// and opens its probe file. Past the last partition reader stays nil.
func (j *HashJoin) nextPartition() error {
	if j.reader != nil {
		if err := j.reader.Close(); err != nil {
			return dberror.Wrap(err, dberror.CodeSpill, "HashJoin.partition", "HashJoin")
		}
		j.reader = nil
	}

	j.current++
	if j.current >= len(j.partitions) {
		j.table = nil
		return nil
	}
	p := j.partitions[j.current]

	j.table = make(map[primitives.HashCode][]*hashEntry)
	if err := j.readPartition(p.build.Path(), j.buildSchema(), func(t *tuple.Tuple) error {
		key, _, err := j.buildKey(t)
		if err == nil {
			j.insert(key, t)
		}
		return err
	}); err != nil {
		return err
	}

	r, err := rowfile.Open(p.probe.Path(), j.cfg.Codec, 0, 0)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "HashJoin.partition", "HashJoin")
	}
	j.reader = r
	return nil
}

func (j *HashJoin) readPartition(path string, schema *catalog.Schema, fn func(*tuple.Tuple) error) error {
	r, err := rowfile.Open(path, j.cfg.Codec, 0, 0)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "HashJoin.partition", "HashJoin")
	}
	defer r.Close()

	for {
		t, err := readTuple(r, schema)
		if err != nil {
			return err
		}
		if t == nil {
			return nil
		}
		if err := fn(t); err != nil {
			return err
		}
	}
}

// nextProbe returns the next probe tuple, from the probe input in memory
// mode or from the partition files in grace mode.
func (j *HashJoin) nextProbe() (*tuple.Tuple, error) {
	if !j.Partitioned() {
		return fetch(j.probeSide())
	}
	for j.reader != nil {
		t, err := readTuple(j.reader, j.probeSchema())
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
		if err := j.nextPartition(); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (j *HashJoin) readNext() (*tuple.Tuple, error) {
	if !j.built {
		if err := j.build(); err != nil {
			return nil, err
		}
	}

	for {
		if t := j.matches.next(); t != nil {
			metrics.TuplesEmitted.WithLabelValues("HashJoin").Inc()
			return t, nil
		}

		probe, err := j.nextProbe()
		if err != nil || probe == nil {
			return nil, err
		}
		if err := j.probe(probe); err != nil {
			return nil, err
		}
	}
}

// probe buffers every result row produced by one probe tuple.
func (j *HashJoin) probe(t *tuple.Tuple) error {
	j.matches.startNew()

	key, ok, err := j.probeKey(t)
	if err != nil || !ok {
		return err
	}

	for _, e := range j.table[types.HashFields(key)] {
		if !types.FieldsEqual(e.key, key) {
			continue
		}

		outer, inner := t, e.t
		if j.cfg.BuildOuter {
			outer, inner = e.t, t
		}
		merged, err := j.out.combine(outer, inner)
		if err != nil {
			return err
		}
		ok, err := j.cond.ResidualHolds(merged)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		row, err := j.out.project(merged)
		if err != nil {
			return err
		}
		j.matches.add(row)
	}
	return nil
}

// release drops the table and deletes the partition files.
func (j *HashJoin) release() error {
	var err error
	if j.reader != nil {
		err = j.reader.Close()
		j.reader = nil
	}
	for _, p := range j.partitions {
		if p == nil {
			continue
		}
		for _, w := range []*rowfile.Writer{p.build, p.probe} {
			if w == nil {
				continue
			}
			err = errors.CombineErrors(err, w.Close())
			if rerr := os.Remove(w.Path()); rerr != nil && !os.IsNotExist(rerr) {
				err = errors.CombineErrors(err, rerr)
			}
		}
	}
	j.partitions = nil
	j.table = nil
	j.built = false
	j.matches.reset()
	return err
}

func (j *HashJoin) Rewind() error {
	if err := j.release(); err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "HashJoin.rewind", "HashJoin")
	}
	return j.BinaryOperator.Rewind()
}

func (j *HashJoin) Close() error {
	err := errors.CombineErrors(j.release(), j.BinaryOperator.Close())
	if err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "HashJoin.close", "HashJoin")
	}
	return nil
}

// fetch returns the next tuple of it, or nil when it is exhausted.
func fetch(it iterator.DbIterator) (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil || !hasNext {
		return nil, err
	}
	return it.Next()
}

// readTuple decodes the next row of r, or returns nil at the end of the file.
func readTuple(r *rowfile.Reader, schema *catalog.Schema) (*tuple.Tuple, error) {
	row, err := r.ReadNext()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSpill, "HashJoin.read", "HashJoin")
	}
	return tuple.FromFields(schema, row)
}
