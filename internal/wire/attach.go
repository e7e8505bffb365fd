package wire

import (
	"encoding/binary"
	"fmt"
)

// Attach flag bits within the REQ_ATTACH payload's flags byte.
const (
	AttachFlagIsBot       byte = 1 << 0
	AttachFlagAuthPresent byte = 1 << 1
	AttachFlagBuildFields byte = 1 << 2
)

// AttachPayload is the decoded body of a REQ_ATTACH frame (spec.md §4.1).
type AttachPayload struct {
	IsBot    bool
	Auth     []byte // present only if AuthPresent
	Race     string
	Class    string
	Sex      string
	Pronouns string
	Name     string
}

// EncodeAttach serializes an AttachPayload to wire form.
func EncodeAttach(p AttachPayload) []byte {
	flags := byte(0)
	if p.IsBot {
		flags |= AttachFlagIsBot
	}
	if p.Auth != nil {
		flags |= AttachFlagAuthPresent
	}
	if p.Race != "" || p.Class != "" || p.Sex != "" || p.Pronouns != "" {
		flags |= AttachFlagBuildFields
	}

	buf := []byte{flags}
	if p.Auth != nil {
		var authLen [2]byte
		binary.BigEndian.PutUint16(authLen[:], uint16(len(p.Auth)))
		buf = append(buf, authLen[:]...)
		buf = append(buf, p.Auth...)
	}
	buf = append(buf, byte(len(p.Race)))
	buf = append(buf, p.Race...)
	buf = append(buf, byte(len(p.Class)))
	buf = append(buf, p.Class...)
	buf = append(buf, byte(len(p.Sex)))
	buf = append(buf, p.Sex...)
	buf = append(buf, byte(len(p.Pronouns)))
	buf = append(buf, p.Pronouns...)
	buf = append(buf, p.Name...)
	return buf
}

// DecodeAttach parses the body of a REQ_ATTACH frame.
func DecodeAttach(b []byte) (AttachPayload, error) {
	var p AttachPayload
	if len(b) < 1 {
		return p, fmt.Errorf("decode attach: empty payload")
	}
	flags := b[0]
	p.IsBot = flags&AttachFlagIsBot != 0
	off := 1

	if flags&AttachFlagAuthPresent != 0 {
		if len(b) < off+2 {
			return p, fmt.Errorf("decode attach: truncated auth length")
		}
		authLen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if len(b) < off+authLen {
			return p, fmt.Errorf("decode attach: truncated auth blob")
		}
		p.Auth = b[off : off+authLen]
		off += authLen
	}

	readToken := func() (string, error) {
		if len(b) < off+1 {
			return "", fmt.Errorf("decode attach: truncated token length")
		}
		n := int(b[off])
		off++
		if len(b) < off+n {
			return "", fmt.Errorf("decode attach: truncated token")
		}
		s := string(b[off : off+n])
		off += n
		return s, nil
	}

	var err error
	if p.Race, err = readToken(); err != nil {
		return p, err
	}
	if p.Class, err = readToken(); err != nil {
		return p, err
	}
	if p.Sex, err = readToken(); err != nil {
		return p, err
	}
	if p.Pronouns, err = readToken(); err != nil {
		return p, err
	}
	p.Name = string(b[off:])
	return p, nil
}
