// Package node implements the peer-to-peer event server, mempool, and
// consensus reconciliation of spec.md section 4.8: a node listens for
// framed TCP messages, validates and pools transactions ahead of mining,
// and reconciles forks against peers' self-reported status.
package node

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/DrGregDoyle/GChain/codec"
)

// Message types, per spec.md section 6's table.
const (
	MsgPing                  byte = 0x00
	MsgNodeConnect           byte = 0x01
	MsgNetworkConnect        byte = 0x02
	MsgDisconnect            byte = 0x03
	MsgNewTransaction        byte = 0x04
	MsgRequestTransactions   byte = 0x05
	MsgNewBlock              byte = 0x06
	MsgBlockRequest          byte = 0x07
	MsgStatusExchange        byte = 0x08
	MsgHashlistMatchRequest  byte = 0x09
	MsgHashlistMatchResponse byte = 0x0a
	MsgNodeList              byte = 0x0d
)

// Server-to-client single-frame reply codes, per spec.md section 6.
const (
	RespOK    byte = 0x01
	RespRetry byte = 0x02
	RespFail  byte = 0x03
)

// MessageRetries bounds client-side retry on connection failure or a
// RETRY/checksum-error response, per spec.md section 4.8's failure
// semantics.
const MessageRetries = 5

// ListenerTimeout bounds how long the server's accept loop blocks before
// re-checking whether it should keep listening, per section 5's
// cancellation contract.
const ListenerTimeout = 10 // seconds

func readExact(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteMessage writes the four-frame request form of spec.md section 6:
// data_type || data_length || data || checksum.
func WriteMessage(w io.Writer, msgType byte, payload string) error {
	sum := sha256.Sum256([]byte(payload))
	frame := codec.FixedHex(uint64(msgType), 1) +
		codec.FixedHex(uint64(len(payload)/2), 2) +
		payload +
		hex.EncodeToString(sum[:])
	_, err := io.WriteString(w, frame)
	return err
}

// ReadMessage reads a four-frame request from r and verifies its checksum.
func ReadMessage(r io.Reader) (msgType byte, payload string, err error) {
	typeHex, err := readExact(r, 2)
	if err != nil {
		return 0, "", err
	}
	typeVal, err := codec.ParseFixedHex(typeHex, 1)
	if err != nil {
		return 0, "", err
	}

	lenHex, err := readExact(r, 4)
	if err != nil {
		return 0, "", err
	}
	length, err := codec.ParseFixedHex(lenHex, 2)
	if err != nil {
		return 0, "", err
	}

	payload, err = readExact(r, int(length)*2)
	if err != nil {
		return 0, "", err
	}

	checksumHex, err := readExact(r, 64)
	if err != nil {
		return 0, "", err
	}
	sum := sha256.Sum256([]byte(payload))
	if hex.EncodeToString(sum[:]) != checksumHex {
		return 0, "", ErrChecksumMismatch
	}

	return byte(typeVal), payload, nil
}

// WriteResponse writes a single-frame server-to-client reply code.
func WriteResponse(w io.Writer, code byte) error {
	_, err := io.WriteString(w, codec.FixedHex(uint64(code), 1))
	return err
}

// ReadResponse reads a single-frame server-to-client reply code.
func ReadResponse(r io.Reader) (byte, error) {
	codeHex, err := readExact(r, 2)
	if err != nil {
		return 0, err
	}
	v, err := codec.ParseFixedHex(codeHex, 1)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
