package upstream

import (
	"net/url"
	"os"
	"strings"
	"sync"
)

var debugDumpMu sync.Mutex

// writeDebugDumpBlock writes a framed dump of raw traffic to stderr.
func writeDebugDumpBlock(title string, data []byte) {
	debugDumpMu.Lock()
	defer debugDumpMu.Unlock()

	header := "===== " + strings.TrimSpace(title) + " BEGIN =====\n"
	footer := "===== " + strings.TrimSpace(title) + " END =====\n"

	os.Stderr.WriteString(header)
	if len(data) > 0 {
		os.Stderr.Write(data)
		if data[len(data)-1] != '\n' {
			os.Stderr.WriteString("\n")
		}
	}
	os.Stderr.WriteString(footer)
}

// redactURL strips query values that may carry caller-supplied credentials
// before the URL reaches the logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for key := range q {
		if strings.Contains(strings.ToLower(key), "key") {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
