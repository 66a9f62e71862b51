package probe

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
)

// DefaultWindowLines is how many trailing log lines are inspected per cycle.
const DefaultWindowLines = 100

// maxTailBytes bounds the backwards read so a huge log cannot stall a cycle.
const maxTailBytes = 256 * 1024

// LogPattern inspects the tail of the server log and counts join/leave
// events. Net-positive recent joins means at least one session is presumed
// still open. This undercounts when leave lines are delayed or missing; it is
// evidence, not session tracking.
type LogPattern struct {
	Path   string
	Window int // trailing lines to inspect; DefaultWindowLines when <= 0
	Join   *regexp.Regexp
	Leave  *regexp.Regexp
}

func (p LogPattern) Active() (bool, error) {
	lines, err := tailLines(p.Path, p.window())
	if err != nil {
		if os.IsNotExist(err) {
			// log not created yet: no evidence
			return false, nil
		}
		return false, err
	}
	joins, leaves := 0, 0
	for _, ln := range lines {
		if p.Join != nil && p.Join.Match(ln) {
			joins++
		}
		if p.Leave != nil && p.Leave.Match(ln) {
			leaves++
		}
	}
	return joins > 0 && joins > leaves, nil
}

func (p LogPattern) Describe() string {
	return fmt.Sprintf("logpattern:%s(last %d lines)", p.Path, p.window())
}

func (p LogPattern) window() int {
	if p.Window <= 0 {
		return DefaultWindowLines
	}
	return p.Window
}

// tailLines returns up to n trailing lines of the file, reading at most
// maxTailBytes from the end.
func tailLines(path string, n int) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	readLen := size
	if readLen > maxTailBytes {
		readLen = maxTailBytes
	}
	if readLen == 0 {
		return nil, nil
	}
	if _, err := f.Seek(size-readLen, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, readLen)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	lines := bytes.Split(bytes.TrimRight(buf, "\n"), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
