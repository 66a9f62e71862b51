//go:build linux

package probe

func sockTablePaths() []string {
	return []string{"/proc/net/tcp", "/proc/net/tcp6"}
}
