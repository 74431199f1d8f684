package bot

import (
	"encoding/json"
	"testing"
)

var _ Store = (*RedisStore)(nil)

func TestSessionKey(t *testing.T) {
	if got := sessionKey(42); got != "apod-bot:session:42" {
		t.Fatalf("sessionKey(42) = %q", got)
	}
	if got := sessionKey(-100123); got != "apod-bot:session:-100123" {
		t.Fatalf("group chat key = %q", got)
	}
}

func TestSession_JSONRoundTrip(t *testing.T) {
	in := Session{AwaitingDate: true, ApodID: 7, ApodDate: "2025-05-05"}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Session
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestSession_ZeroValueMarshalsEmpty(t *testing.T) {
	raw, err := json.Marshal(Session{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("zero session = %s, want {}", raw)
	}
}
