package probe

import (
	"fmt"
	"os"
	"time"
)

// DefaultFreshnessWindow is how recently the log must have been written for
// the server to be considered busy.
const DefaultFreshnessWindow = 60 * time.Second

// LogFreshness treats a recently modified server log as activity: the server
// is producing output, a proxy for engagement.
type LogFreshness struct {
	Path   string
	Window time.Duration    // DefaultFreshnessWindow when <= 0
	Now    func() time.Time // for tests; time.Now when nil
}

func (p LogFreshness) Active() (bool, error) {
	fi, err := os.Stat(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return now().Sub(fi.ModTime()) <= p.window(), nil
}

func (p LogFreshness) Describe() string {
	return fmt.Sprintf("logfresh:%s(%s)", p.Path, p.window())
}

func (p LogFreshness) window() time.Duration {
	if p.Window <= 0 {
		return DefaultFreshnessWindow
	}
	return p.Window
}
