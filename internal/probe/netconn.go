package probe

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// tcpEstablished is the socket state code in /proc/net/tcp for an
// established connection.
const tcpEstablished = "01"

// NetConn counts established inbound TCP connections on the server port. A
// single open connection is taken as proof that a client is attached. Hosts
// where the proc tables cannot be read yield no evidence rather than an
// error, so a missing capability never blocks hibernation.
type NetConn struct {
	Port int
}

func (p NetConn) Active() (bool, error) {
	n, err := p.Connections()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Connections returns the number of established connections with the server
// port as local endpoint, summed over the platform's socket tables.
func (p NetConn) Connections() (int, error) {
	total := 0
	for _, path := range sockTablePaths() {
		f, err := os.Open(path)
		if err != nil {
			// table absent on this host: no evidence from it
			continue
		}
		total += countEstablished(f, p.Port)
		_ = f.Close()
	}
	return total, nil
}

func (p NetConn) Describe() string {
	return fmt.Sprintf("netconn:port %d", p.Port)
}

// countEstablished scans a /proc/net/tcp-format table and counts rows in the
// established state whose local port matches. Malformed rows are skipped.
func countEstablished(r io.Reader, port int) int {
	n := 0
	scanner := bufio.NewScanner(r)
	scanner.Scan() // skip header
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		if fields[3] != tcpEstablished {
			continue
		}
		if localPort(fields[1]) == port {
			n++
		}
	}
	return n
}

// localPort extracts the port from a "HEXADDR:HEXPORT" column.
func localPort(addr string) int {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 || i+1 >= len(addr) {
		return -1
	}
	p, err := strconv.ParseInt(addr[i+1:], 16, 32)
	if err != nil {
		return -1
	}
	return int(p)
}
