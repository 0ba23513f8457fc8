package fsops

import (
	"errors"
	"os"
	"syscall"
)

// Outcome classifies the result of one removal attempt.
type Outcome int

const (
	// Deleted means the entry was removed by this attempt.
	Deleted Outcome = iota
	// AlreadyAbsent means the entry was gone before the attempt. The
	// desired end state holds, so this counts as success, not an error.
	AlreadyAbsent
	// PermissionDenied means the filesystem refused the removal.
	PermissionDenied
	// Busy means the entry was locked or in use.
	Busy
	// IOFailure covers every other removal error, including attempting to
	// remove a directory that still has children.
	IOFailure
)

// Failed reports whether the outcome counts against errors_encountered.
func (o Outcome) Failed() bool {
	return o != Deleted && o != AlreadyAbsent
}

func (o Outcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case AlreadyAbsent:
		return "already_absent"
	case PermissionDenied:
		return "permission_denied"
	case Busy:
		return "busy"
	default:
		return "io_failure"
	}
}

// Classify maps a removal error to an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return Deleted
	}
	if os.IsNotExist(err) {
		return AlreadyAbsent
	}
	if os.IsPermission(err) {
		return PermissionDenied
	}
	if errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY) {
		return Busy
	}
	return IOFailure
}
