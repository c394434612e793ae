package node

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/DrGregDoyle/GChain/codec"
)

const dialTimeout = 5 * time.Second

// isSelf reports whether addr names one of this node's own endpoints,
// per DESIGN NOTES section 9's self-peer suppression requirement.
func (n *Node) isSelf(addr string) bool {
	return addr == n.ListenAddr || addr == n.PublicAddr || addr == n.LANAddr
}

// call dials addr and exchanges one framed request/response, retrying up to
// MessageRetries times on connection refusal, timeout, or a RETRY/checksum
// response, per spec.md section 4.8's failure semantics. It gives up and
// returns the last error once retries are exhausted.
func (n *Node) call(addr string, msgType byte, payload string) (code byte, resp string, err error) {
	if n.isSelf(addr) {
		return 0, "", ErrSelfPeer
	}

	for attempt := 0; attempt < MessageRetries; attempt++ {
		code, resp, err = n.callOnce(addr, msgType, payload)
		if err == nil && code != RespRetry {
			return code, resp, nil
		}
		if n.Logger != nil {
			n.Logger.Warn("peer call failed, retrying",
				zap.String("peer", addr), zap.Int("attempt", attempt), zap.Error(err))
		}
	}
	return code, resp, err
}

// classifyNetErr rewraps a network I/O error as ErrTimeout when the
// underlying net.Error reports Timeout(), per spec.md section 7's
// peer/network taxonomy; other errors pass through unchanged.
func classifyNetErr(err error) error {
	if err == nil {
		return nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return fmt.Errorf("node: %w: %v", ErrTimeout, err)
	}
	return err
}

func (n *Node) callOnce(addr string, msgType byte, payload string) (byte, string, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, "", fmt.Errorf("node: %w: %v", ErrTimeout, err)
		}
		return 0, "", fmt.Errorf("node: %w: %v", ErrConnectionRefused, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(dialTimeout))

	if err := WriteMessage(conn, msgType, payload); err != nil {
		return 0, "", classifyNetErr(err)
	}
	code, err := ReadResponse(conn)
	if err != nil {
		return 0, "", classifyNetErr(err)
	}
	if code != RespOK {
		return code, "", nil
	}

	// Some request types elicit an OK frame followed by a full
	// four-frame server-to-client message, per spec.md section 6.
	switch msgType {
	case MsgNetworkConnect, MsgRequestTransactions, MsgBlockRequest, MsgHashlistMatchRequest:
		_, resp, err := ReadMessage(conn)
		if err != nil {
			return 0, "", classifyNetErr(err)
		}
		return code, resp, nil
	default:
		return code, "", nil
	}
}

// Broadcast sends msgType/payload to every known peer, ignoring individual
// failures (each call already retried internally).
func (n *Node) Broadcast(msgType byte, payload string) {
	n.peersMu.Lock()
	peers := append([]string(nil), n.Peers...)
	n.peersMu.Unlock()

	for _, addr := range peers {
		if n.isSelf(addr) {
			continue
		}
		if _, _, err := n.call(addr, msgType, payload); err != nil && n.Logger != nil {
			n.Logger.Warn("broadcast to peer failed", zap.String("peer", addr), zap.Error(err))
		}
	}
}

// RequestHashlistMatch sends our hashlist to peer and returns the matching
// prefix length it reports, per message types 0x09/0x0a.
func (n *Node) RequestHashlistMatch(peer string, ours [][32]byte) (int, error) {
	hexIDs := make([]string, len(ours))
	for i, h := range ours {
		hexIDs[i] = fmt.Sprintf("%x", h)
	}
	payload, err := json.Marshal(hexIDs)
	if err != nil {
		return 0, err
	}

	code, resp, err := n.call(peer, MsgHashlistMatchRequest, fmt.Sprintf("%x", payload))
	if err != nil {
		return 0, err
	}
	if code != RespOK {
		return 0, fmt.Errorf("node: peer %s refused hashlist match request", peer)
	}
	idx, err := codec.ParseFixedHex(resp, 4)
	if err != nil {
		return 0, err
	}
	return int(idx), nil
}

// RequestBlock asks peer for the raw block at the given chain index, per
// message type 0x07.
func (n *Node) RequestBlock(peer string, index int) (string, error) {
	payload := codec.FixedHex(uint64(index), 4)
	code, resp, err := n.call(peer, MsgBlockRequest, payload)
	if err != nil {
		return "", err
	}
	if code != RespOK {
		return "", fmt.Errorf("node: peer %s does not have block %d", peer, index)
	}
	return resp, nil
}

// SendStatus reports our own {HEIGHT, HASH, TIMESTAMP} to peer, per message
// type 0x08.
func (n *Node) SendStatus(peer string, status PeerStatus) error {
	payload := struct {
		Self   [2]string  `json:"self"`
		Status PeerStatus `json:"status"`
	}{
		Self:   [2]string{n.PublicAddr, n.ListenAddr},
		Status: status,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, _, err = n.call(peer, MsgStatusExchange, fmt.Sprintf("%x", body))
	return err
}
