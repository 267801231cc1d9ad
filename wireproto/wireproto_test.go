package wireproto

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

func TestWrapReadMessageRoundTrip(t *testing.T) {
	data, err := json.Marshal(map[string]int{"height": 7})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	framed, err := Wrap(CodePushBlock, data)
	if err != nil {
		t.Fatalf("Wrap: %+v", err)
	}

	rd := NewReader(bufio.NewReader(bytes.NewReader(framed)))
	env, err := rd.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %+v", err)
	}
	if env.Type != CodePushBlock {
		t.Fatalf("expected type %q, got %q", CodePushBlock, env.Type)
	}
	if !bytes.Equal(env.Data, data) {
		t.Fatalf("expected data %s, got %s", data, env.Data)
	}
}

func TestWrapWithNoPayload(t *testing.T) {
	framed, err := Wrap(CodePing, nil)
	if err != nil {
		t.Fatalf("Wrap: %+v", err)
	}
	rd := NewReader(bufio.NewReader(bytes.NewReader(framed)))
	env, err := rd.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %+v", err)
	}
	if env.Type != CodePing {
		t.Fatalf("expected type %q, got %q", CodePing, env.Type)
	}
	if len(env.Data) != 0 {
		t.Fatalf("expected empty data, got %s", env.Data)
	}
}

func TestReadMessageRejectsBadPrologue(t *testing.T) {
	framed, err := Wrap(CodePing, nil)
	if err != nil {
		t.Fatalf("Wrap: %+v", err)
	}
	framed[0] = 0x01

	rd := NewReader(bufio.NewReader(bytes.NewReader(framed)))
	if _, err := rd.ReadMessage(); err != ErrBadFraming {
		t.Fatalf("expected ErrBadFraming, got %v", err)
	}
}

func TestReadMessageRejectsBadEpilogue(t *testing.T) {
	framed, err := Wrap(CodePing, nil)
	if err != nil {
		t.Fatalf("Wrap: %+v", err)
	}
	framed[len(framed)-1] = 0x01

	rd := NewReader(bufio.NewReader(bytes.NewReader(framed)))
	if _, err := rd.ReadMessage(); err != ErrBadFraming {
		t.Fatalf("expected ErrBadFraming, got %v", err)
	}
}

func TestReadMessageMultipleFramesOnSameStream(t *testing.T) {
	f1, err := Wrap(CodePing, nil)
	if err != nil {
		t.Fatalf("Wrap: %+v", err)
	}
	f2, err := Wrap(CodePong, nil)
	if err != nil {
		t.Fatalf("Wrap: %+v", err)
	}

	var buf bytes.Buffer
	buf.Write(f1)
	buf.Write(f2)

	rd := NewReader(bufio.NewReader(&buf))
	env1, err := rd.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage 1: %+v", err)
	}
	if env1.Type != CodePing {
		t.Fatalf("expected first message %q, got %q", CodePing, env1.Type)
	}
	env2, err := rd.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage 2: %+v", err)
	}
	if env2.Type != CodePong {
		t.Fatalf("expected second message %q, got %q", CodePong, env2.Type)
	}
}
