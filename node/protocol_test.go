package node

import (
	"bytes"
	"testing"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MsgNewTransaction, "deadbeef"); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	msgType, payload, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msgType != MsgNewTransaction || payload != "deadbeef" {
		t.Fatalf("got (%x, %q), want (%x, %q)", msgType, payload, MsgNewTransaction, "deadbeef")
	}
}

func TestReadMessageDetectsChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MsgPing, "cafe"); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	corrupted := buf.String()
	corrupted = corrupted[:len(corrupted)-1] + "0"
	if _, _, err := ReadMessage(bytes.NewBufferString(corrupted)); err != ErrChecksumMismatch {
		t.Fatalf("ReadMessage: %v, want ErrChecksumMismatch", err)
	}
}

func TestWriteReadResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, RespOK); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	code, err := ReadResponse(&buf)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if code != RespOK {
		t.Fatalf("code = %x, want RespOK", code)
	}
}
