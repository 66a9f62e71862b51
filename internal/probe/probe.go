package probe

// Probe is one independent source of evidence that somebody is using the
// supervised server. Probes are heuristic: a true result means activity was
// observed, a false result only means no evidence was found.
// Implementations must be safe for concurrent use.
type Probe interface {
	// Active returns true if the probe observed activity.
	Active() (bool, error)
	// Describe returns a human-readable description of the probe.
	Describe() string
}
