package fsops

import "sync"

// FakeDeleter implements Deleter for testing
// Records all remove calls without performing actual deletions; paths in
// FailWith report the mapped error instead of succeeding
type FakeDeleter struct {
	mu       sync.Mutex
	Calls    []string
	FailWith map[string]error
}

func (f *FakeDeleter) RemoveFile(path string) error {
	return f.record("rm:"+path, path)
}

func (f *FakeDeleter) RemoveDir(path string) error {
	return f.record("rmdir:"+path, path)
}

func (f *FakeDeleter) record(call, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	if f.FailWith != nil {
		return f.FailWith[path]
	}
	return nil
}

// CallCount returns the number of remove calls recorded so far.
func (f *FakeDeleter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// CallsSnapshot returns a copy of the recorded calls in order.
func (f *FakeDeleter) CallsSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}
