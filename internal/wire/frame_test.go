package wire

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		f    Frame
	}{
		{"input", Frame{Type: ReqInput, SessionID: NewSessionID(), Payload: []byte("look")}},
		{"empty payload", Frame{Type: ReqDetach, SessionID: NewSessionID(), Payload: nil}},
		{"output", Frame{Type: RespOutput, SessionID: NewSessionID(), Payload: []byte("you see a room\r\n")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteFrame(&buf, tc.f); err != nil {
				t.Fatalf("WriteFrame: %v", err)
			}
			got, err := ReadFrame(&buf)
			if err != nil {
				t.Fatalf("ReadFrame: %v", err)
			}
			if got.Type != tc.f.Type {
				t.Errorf("type = %v, want %v", got.Type, tc.f.Type)
			}
			if got.SessionID != tc.f.SessionID {
				t.Errorf("session id = %v, want %v", got.SessionID, tc.f.SessionID)
			}
			if !bytes.Equal(got.Payload, tc.f.Payload) {
				t.Errorf("payload = %q, want %q", got.Payload, tc.f.Payload)
			}
		})
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	hdr := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	buf.Write(hdr)
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for oversized frame length")
	}
}

func TestSessionIDStringRoundTrip(t *testing.T) {
	id := NewSessionID()
	s := id.String()
	if len(s) != 32 {
		t.Fatalf("session id string length = %d, want 32", len(s))
	}
	got, err := ParseSessionID(s)
	if err != nil {
		t.Fatalf("ParseSessionID: %v", err)
	}
	if got != id {
		t.Errorf("round-tripped session id = %v, want %v", got, id)
	}
}

func TestAttachPayloadRoundTrip(t *testing.T) {
	p := AttachPayload{
		IsBot:    true,
		Auth:     []byte("tok-abc"),
		Race:     "human",
		Class:    "warrior",
		Sex:      "female",
		Pronouns: "she",
		Name:     "Eldra",
	}
	got, err := DecodeAttach(EncodeAttach(p))
	if err != nil {
		t.Fatalf("DecodeAttach: %v", err)
	}
	if got.IsBot != p.IsBot || got.Race != p.Race || got.Class != p.Class ||
		got.Sex != p.Sex || got.Pronouns != p.Pronouns || got.Name != p.Name ||
		!bytes.Equal(got.Auth, p.Auth) {
		t.Errorf("round-tripped attach = %+v, want %+v", got, p)
	}
}

func TestAttachPayloadNoAuthNoBuild(t *testing.T) {
	p := AttachPayload{Name: "Bob"}
	got, err := DecodeAttach(EncodeAttach(p))
	if err != nil {
		t.Fatalf("DecodeAttach: %v", err)
	}
	if got.Auth != nil {
		t.Errorf("auth = %v, want nil", got.Auth)
	}
	if got.Name != "Bob" {
		t.Errorf("name = %q, want Bob", got.Name)
	}
}
