package casregistry

// Usage restricts which programs should accept a given backend.
type Usage uint8

const (
	// UsageCLI indicates the backend should be available in the unf CLI.
	UsageCLI Usage = 1 << iota
	// UsageDaemon indicates the backend should be available in the report store daemon.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }
