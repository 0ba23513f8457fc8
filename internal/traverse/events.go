package traverse

import "fastdel/internal/fsops"

// Kind discriminates processed entries in progress events.
type Kind int

const (
	KindFile Kind = iota // regular files and symlink entries
	KindDir
)

func (k Kind) String() string {
	if k == KindDir {
		return "directory"
	}
	return "file"
}

// Event describes one processed entry.
type Event struct {
	Path    string
	Kind    Kind
	Outcome fsops.Outcome
}

// Sink consumes per-entry progress events. Implementations must be safe
// for concurrent use; the traverser calls Entry from many goroutines.
type Sink interface {
	Entry(Event)
}
