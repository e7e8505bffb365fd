package broker

import (
	"bytes"
	"testing"
)

func TestStripIACRemovesWillSequence(t *testing.T) {
	in := append([]byte("look"), telnetIAC, telnetWILL, telnetOptEcho)
	in = append(in, []byte(" north")...)
	got := stripIAC(in)
	if string(got) != "look north" {
		t.Errorf("stripIAC = %q, want %q", got, "look north")
	}
}

func TestStripIACUnescapesDoubledIAC(t *testing.T) {
	in := []byte{'a', telnetIAC, telnetIAC, 'b'}
	got := stripIAC(in)
	want := []byte{'a', telnetIAC, 'b'}
	if !bytes.Equal(got, want) {
		t.Errorf("stripIAC = %v, want %v", got, want)
	}
}

func TestStripIACDropsTruncatedSequence(t *testing.T) {
	in := []byte{'a', telnetIAC}
	got := stripIAC(in)
	if string(got) != "a" {
		t.Errorf("stripIAC = %q, want %q", got, "a")
	}
}

func TestTelnetWillWontEchoBytes(t *testing.T) {
	if want := []byte{telnetIAC, telnetWILL, telnetOptEcho}; !bytes.Equal(telnetWillEcho(), want) {
		t.Errorf("telnetWillEcho = %v, want %v", telnetWillEcho(), want)
	}
	if want := []byte{telnetIAC, telnetWONT, telnetOptEcho}; !bytes.Equal(telnetWontEcho(), want) {
		t.Errorf("telnetWontEcho = %v, want %v", telnetWontEcho(), want)
	}
}
