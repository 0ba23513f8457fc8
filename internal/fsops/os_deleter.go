package fsops

import "os"

// OSDeleter implements Deleter using real os package calls
type OSDeleter struct{}

func (OSDeleter) RemoveFile(path string) error {
	return os.Remove(path)
}

func (OSDeleter) RemoveDir(path string) error {
	return os.Remove(path)
}
