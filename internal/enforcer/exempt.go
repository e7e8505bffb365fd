package enforcer

import (
	"bufio"
	"os"
	"strings"
)

// ExemptPrefixes is the loaded contents of the exempt-prefixes file
// (spec.md §6): one key prefix per line, blank lines and `#`-comments
// ignored. A desired ban whose key has one of these as a prefix is never
// promoted to applied_bans (boundary scenario S5).
type ExemptPrefixes struct {
	prefixes []string
}

// loadExemptPrefixes reads path. A missing file is not an error: it is
// treated as an empty exempt set, matching dns_task's tolerant startup
// behavior in the original daemon.
func loadExemptPrefixes(path string) (ExemptPrefixes, error) {
	if path == "" {
		return ExemptPrefixes{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ExemptPrefixes{}, nil
		}
		return ExemptPrefixes{}, err
	}
	defer f.Close()

	var out ExemptPrefixes
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out.prefixes = append(out.prefixes, line)
	}
	if err := sc.Err(); err != nil {
		return ExemptPrefixes{}, err
	}
	return out, nil
}

// MatchingPrefix returns the first exempt prefix that key has as a
// prefix, and whether one was found.
func (e ExemptPrefixes) MatchingPrefix(key string) (string, bool) {
	for _, p := range e.prefixes {
		if strings.HasPrefix(key, p) {
			return p, true
		}
	}
	return "", false
}
