package exitcodes

// Exit codes for the fastdel CLI
// These codes form the operational contract with scripts and CI wrappers
const (
	Success          = 0 // Tree fully removed with no per-entry errors
	InvalidArgs      = 2 // Bad flags or configuration file
	ValidationFailed = 3 // Target missing, not a directory, or protected
	PartialFailure   = 4 // Run completed but some entries could not be removed
	RuntimeError     = 5 // Unexpected runtime failure
)
