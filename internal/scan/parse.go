package scan

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/desertwitch/nfsup/internal/schema"
)

// ParseGrepable extracts the hosts with the given port open from the
// scanner's grepable ("-oG") output. The format is line-oriented: a host line
// reads "Host: <addr> (<name>)\tPorts: <port>/<state>/<proto>//...". Lines
// not reporting the port as open are ignored, as are comments and status-only
// lines. Unparsable output simply yields fewer (or zero) hosts.
func ParseGrepable(out []byte, port int) []schema.Host {
	var hosts []schema.Host

	openMarker := strconv.Itoa(port) + "/open/"
	seen := map[schema.Host]bool{}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()

		if !strings.HasPrefix(line, "Host:") {
			continue
		}

		if !strings.Contains(line, "Ports:") || !strings.Contains(line, openMarker) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		host := schema.Host(fields[1])
		if seen[host] {
			continue
		}
		seen[host] = true

		hosts = append(hosts, host)
	}

	return hosts
}
