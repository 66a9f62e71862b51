package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var (
	joinRe  = regexp.MustCompile(`joined the game`)
	leaveRe = regexp.MustCompile(`left the game`)
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latest.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLogPatternNetJoins(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  bool
	}{
		{"no events", []string{"[12:00:00] [Server thread/INFO]: Done (3.2s)!"}, false},
		{"one join", []string{"[12:01:00] [Server thread/INFO]: alice joined the game"}, true},
		{"join then leave", []string{
			"[12:01:00] [Server thread/INFO]: alice joined the game",
			"[12:05:00] [Server thread/INFO]: alice left the game",
		}, false},
		{"two joins one leave", []string{
			"[12:01:00] [Server thread/INFO]: alice joined the game",
			"[12:02:00] [Server thread/INFO]: bob joined the game",
			"[12:05:00] [Server thread/INFO]: alice left the game",
		}, true},
		{"leaves only", []string{"[12:05:00] [Server thread/INFO]: alice left the game"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := LogPattern{Path: writeLog(t, tc.lines...), Join: joinRe, Leave: leaveRe}
			got, err := p.Active()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLogPatternWindowLimits(t *testing.T) {
	// join falls outside the inspected window, only the leave remains
	lines := []string{"[12:00:00]: alice joined the game"}
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("[12:00:%02d]: tick", i))
	}
	lines = append(lines, "[12:01:00]: alice left the game")
	p := LogPattern{Path: writeLog(t, lines...), Window: 5, Join: joinRe, Leave: leaveRe}
	got, err := p.Active()
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Fatal("join outside window must not count")
	}
}

func TestLogPatternMissingFile(t *testing.T) {
	p := LogPattern{
		Path: filepath.Join(t.TempDir(), "nope.log"),
		Join: joinRe, Leave: leaveRe,
	}
	got, err := p.Active()
	if err != nil || got {
		t.Fatalf("missing log must be (false, nil), got (%v, %v)", got, err)
	}
}

func TestLogPatternEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	p := LogPattern{Path: path, Join: joinRe, Leave: leaveRe}
	got, err := p.Active()
	if err != nil || got {
		t.Fatalf("empty log must be (false, nil), got (%v, %v)", got, err)
	}
}

func TestTailLinesBoundedRead(t *testing.T) {
	// file larger than maxTailBytes: only the trailing chunk is read
	var b strings.Builder
	for i := 0; i < 20000; i++ {
		fmt.Fprintf(&b, "line %d padding padding padding\n", i)
	}
	b.WriteString("alice joined the game\n")
	path := filepath.Join(t.TempDir(), "big.log")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	p := LogPattern{Path: path, Join: joinRe, Leave: leaveRe}
	got, err := p.Active()
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Fatal("trailing join in large file must be seen")
	}
}
