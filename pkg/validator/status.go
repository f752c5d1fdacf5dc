package validator

// Status is the outcome of one validation run. The numeric values are the
// process exit codes of the auval command and must not be reordered.
type Status int

const (
	NotRunning Status = iota
	Running
	CouldNotRun
	Crashed
	NotFound
	Failure
	IncompatibleVersion
	DuplicateFormat
	SuccessDoesNotRequireInit
	SuccessRequiresInit
	NotAuthorized
)

var statusNames = map[Status]string{
	NotRunning:                "not-running",
	Running:                   "running",
	CouldNotRun:               "could-not-run",
	Crashed:                   "crashed",
	NotFound:                  "not-found",
	Failure:                   "failure",
	IncompatibleVersion:       "incompatible-version",
	DuplicateFormat:           "duplicate-format",
	SuccessDoesNotRequireInit: "success-does-not-require-init",
	SuccessRequiresInit:       "success-requires-init",
	NotAuthorized:             "not-authorized",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Succeeded reports whether the component may be loaded
func (s Status) Succeeded() bool {
	return s == SuccessDoesNotRequireInit || s == SuccessRequiresInit
}

// ParseStatus returns the status with the given name
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return NotRunning, false
}

func success(requiresInit bool) Status {
	if requiresInit {
		return SuccessRequiresInit
	}
	return SuccessDoesNotRequireInit
}
