//go:build !linux

package probe

// No readable socket table outside Linux; the network probe degrades to
// "no evidence" and the log probes carry the detection.
func sockTablePaths() []string { return nil }
