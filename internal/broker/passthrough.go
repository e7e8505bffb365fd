package broker

import (
	"strconv"
	"strings"
)

// handleInWorldLine implements the in-world command passthrough of
// spec.md §4.3.2: every line becomes a verbatim INPUT frame except for a
// small set of connection-level commands the broker intercepts itself.
func (c *clientConn) handleInWorldLine(line string) {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)

	switch lower {
	case "exit", "quit":
		c.send("bye\r\n")
		c.bye = true
		return
	case "uptime", "uptime broker", "uptime session":
		c.send(c.renderUptime())
		if lower != "uptime" {
			return
		}
		// bare "uptime" also asks the shard for its own, concatenated below.
	}

	if trimmed == "" {
		return
	}

	if !c.srv.shard.sendInput(c.sess, line) {
		c.send("# shard offline; input dropped\r\n")
	}
}

func (c *clientConn) renderUptime() string {
	secs := c.srv.UptimeSeconds()
	return "broker uptime: " + formatDuration(secs) + "\r\n"
}

func formatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	d := secs / 86400
	secs %= 86400
	h := secs / 3600
	secs %= 3600
	m := secs / 60
	s := secs % 60
	var b strings.Builder
	if d > 0 {
		b.WriteString(strconv.FormatInt(d, 10))
		b.WriteString("d ")
	}
	b.WriteString(strconv.FormatInt(h, 10))
	b.WriteString("h ")
	b.WriteString(strconv.FormatInt(m, 10))
	b.WriteString("m ")
	b.WriteString(strconv.FormatInt(s, 10))
	b.WriteString("s")
	return b.String()
}
