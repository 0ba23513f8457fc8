package fsops

// Deleter abstracts filesystem remove operations
// Enables mocking in tests to exercise failure paths without a real tree
type Deleter interface {
	// RemoveFile removes a regular file or a symlink entry. Symlinks are
	// removed as the link itself, never dereferenced.
	RemoveFile(path string) error
	// RemoveDir removes a directory the caller guarantees is already empty.
	RemoveDir(path string) error
}
