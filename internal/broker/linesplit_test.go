package broker

import "testing"

func TestPopLineFraming(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		wantLine string
		wantRest string
	}{
		{"crlf", "look\r\nnorth", "look", "north"},
		{"lf only", "look\nnorth", "look", "north"},
		{"cr-nul", "look\r\x00north", "look", "north"},
		{"bare cr", "look\rnorth", "look", "north"},
		{"stray trailing cr before lf", "look\r\r\nnorth", "look", "\r\nnorth"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line, rest, ok := popLine([]byte(tc.in))
			if !ok {
				t.Fatalf("popLine(%q) returned ok=false", tc.in)
			}
			if string(line) != tc.wantLine {
				t.Errorf("line = %q, want %q", line, tc.wantLine)
			}
			if string(rest) != tc.wantRest {
				t.Errorf("rest = %q, want %q", rest, tc.wantRest)
			}
		})
	}
}

func TestPopLineNoTerminatorYet(t *testing.T) {
	_, rest, ok := popLine([]byte("partial"))
	if ok {
		t.Fatal("expected ok=false for unterminated buffer")
	}
	if string(rest) != "partial" {
		t.Errorf("rest = %q, want original buffer unchanged", rest)
	}
}

func TestPopLineMultipleLinesOneAtATime(t *testing.T) {
	buf := []byte("look\r\nnorth\r\n")
	line1, rest1, ok := popLine(buf)
	if !ok || string(line1) != "look" {
		t.Fatalf("first pop = %q, %v", line1, ok)
	}
	line2, rest2, ok := popLine(rest1)
	if !ok || string(line2) != "north" {
		t.Fatalf("second pop = %q, %v", line2, ok)
	}
	if len(rest2) != 0 {
		t.Errorf("rest after draining both lines = %q, want empty", rest2)
	}
}
