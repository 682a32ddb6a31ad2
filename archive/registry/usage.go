package registry

// Usage restricts which programs should accept a given backend.
type Usage uint8

const (
	// UsageCLI indicates the backend should be available in CLI programs (e.g. xdao-feed).
	UsageCLI Usage = 1 << iota
	// UsageDaemon indicates the backend should be available in long-running daemons (e.g. xdao-feedcasd).
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }
