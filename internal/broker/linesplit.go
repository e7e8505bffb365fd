package broker

import "bytes"

// popLine pops the earliest complete line from buf per spec.md §4.3.3:
// client bytes may be framed by CRLF, LF, or CR-NUL. It returns the line
// (without its terminator, and with any stray trailing \r stripped), the
// remaining buffer, and whether a line was found.
func popLine(buf []byte) (line []byte, rest []byte, ok bool) {
	nl := bytes.IndexByte(buf, '\n')
	cr := bytes.IndexByte(buf, '\r')

	var i int
	switch {
	case nl >= 0 && cr >= 0:
		i = min(nl, cr)
	case nl >= 0:
		i = nl
	case cr >= 0:
		i = cr
	default:
		return nil, buf, false
	}

	line = append([]byte(nil), buf[:i]...)
	rest = buf[i+1:]
	if buf[i] == '\r' && len(rest) > 0 && (rest[0] == '\n' || rest[0] == 0) {
		rest = rest[1:]
	}
	for len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, rest, true
}
