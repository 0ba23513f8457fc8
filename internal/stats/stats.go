package stats

import "github.com/puzpuzpuz/xsync/v4"

// Collector aggregates deletion outcomes across all concurrent workers of
// one run. Each counter is an independent striped adder, so recording never
// blocks and never takes a lock; counters only ever increase.
type Collector struct {
	files  *xsync.Counter
	dirs   *xsync.Counter
	errors *xsync.Counter
	bytes  *xsync.Counter
}

// Snapshot is a point-in-time read of the counters. Each counter is
// individually consistent; the set is not linearized across counters.
type Snapshot struct {
	FilesDeleted      int64
	DirsDeleted       int64
	ErrorsEncountered int64
	BytesFreed        int64
}

func NewCollector() *Collector {
	return &Collector{
		files:  xsync.NewCounter(),
		dirs:   xsync.NewCounter(),
		errors: xsync.NewCounter(),
		bytes:  xsync.NewCounter(),
	}
}

// RecordFileDeleted counts one removed file or symlink entry and the bytes
// it occupied. Symlink entries contribute zero bytes.
func (c *Collector) RecordFileDeleted(bytes int64) {
	c.files.Inc()
	if bytes > 0 {
		c.bytes.Add(bytes)
	}
}

func (c *Collector) RecordDirDeleted() {
	c.dirs.Inc()
}

func (c *Collector) RecordError() {
	c.errors.Inc()
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesDeleted:      c.files.Value(),
		DirsDeleted:       c.dirs.Value(),
		ErrorsEncountered: c.errors.Value(),
		BytesFreed:        c.bytes.Value(),
	}
}
