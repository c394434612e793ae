package node

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/DrGregDoyle/GChain/codec"
)

// Listen opens a TCP listener on n.ListenAddr and runs its accept loop until
// ctx is cancelled. Each accepted connection is handled by a short-lived goroutine
// that reads one request and replies, per spec.md section 4.8 and section 5.
func (n *Node) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", n.ListenAddr)
	if err != nil {
		return fmt.Errorf("node: listening on %s: %w", n.ListenAddr, err)
	}
	defer ln.Close()

	n.listening.Store(true)
	go func() {
		<-ctx.Done()
		n.listening.Store(false)
		ln.Close()
	}()

	tcpLn, ok := ln.(*net.TCPListener)
	for n.listening.Load() {
		if ok {
			tcpLn.SetDeadline(time.Now().Add(ListenerTimeout * time.Second))
		}
		conn, err := ln.Accept()
		if err != nil {
			if ne, isNetErr := err.(net.Error); isNetErr && ne.Timeout() {
				continue
			}
			if !n.listening.Load() {
				return nil
			}
			if n.Logger != nil {
				n.Logger.Warn("accept failed", zap.Error(err))
			}
			continue
		}
		go n.handleConnection(conn)
	}
	return nil
}

func (n *Node) handleConnection(conn net.Conn) {
	defer conn.Close()

	msgType, payload, err := ReadMessage(conn)
	if err != nil {
		if errors.Is(err, ErrChecksumMismatch) {
			WriteResponse(conn, RespRetry)
			return
		}
		WriteResponse(conn, RespFail)
		return
	}

	switch msgType {
	case MsgPing:
		WriteResponse(conn, RespOK)

	case MsgNodeConnect:
		var pair [2]string
		if err := json.Unmarshal(mustHexDecode(payload), &pair); err != nil {
			WriteResponse(conn, RespFail)
			return
		}
		n.AddPeer(fmt.Sprintf("%s:%s", pair[0], pair[1]))
		WriteResponse(conn, RespOK)

	case MsgNetworkConnect:
		WriteResponse(conn, RespOK)
		peers, _ := json.Marshal(n.PeerList())
		WriteMessage(conn, MsgNodeList, hex.EncodeToString(peers))

	case MsgDisconnect:
		WriteResponse(conn, RespOK)

	case MsgNewTransaction:
		accepted, err := n.SubmitTransaction(payload)
		if err != nil || !accepted {
			WriteResponse(conn, RespFail)
			return
		}
		WriteResponse(conn, RespOK)

	case MsgRequestTransactions:
		WriteResponse(conn, RespOK)
		raws := make([]string, 0)
		for _, tx := range n.Mempool.Snapshot() {
			raws = append(raws, tx.Raw())
		}
		body, _ := json.Marshal(raws)
		WriteMessage(conn, MsgRequestTransactions, hex.EncodeToString(body))

	case MsgNewBlock:
		added, err := n.Blockchain.AddBlock(payload)
		if err != nil || !added {
			WriteResponse(conn, RespFail)
			return
		}
		WriteResponse(conn, RespOK)
		n.Mempool.Clear()
		n.Mempool.CheckForParents(n.Blockchain)

	case MsgBlockRequest:
		index, err := codec.ParseFixedHex(payload, 4)
		if err != nil {
			WriteResponse(conn, RespFail)
			return
		}
		raw, ok := n.Blockchain.BlockAt(int(index))
		if !ok {
			WriteResponse(conn, RespFail)
			return
		}
		WriteResponse(conn, RespOK)
		WriteMessage(conn, MsgNewBlock, raw)

	case MsgStatusExchange:
		var body struct {
			Self   [2]string  `json:"self"`
			Status PeerStatus `json:"status"`
		}
		if err := json.Unmarshal(mustHexDecode(payload), &body); err != nil {
			WriteResponse(conn, RespFail)
			return
		}
		peer := body.Self[1]
		n.Consensus.Update(peer, body.Status)
		n.AddPeer(peer)
		WriteResponse(conn, RespOK)

	case MsgHashlistMatchRequest:
		var theirHex []string
		if err := json.Unmarshal(mustHexDecode(payload), &theirHex); err != nil {
			WriteResponse(conn, RespFail)
			return
		}
		theirs := make([][32]byte, len(theirHex))
		for i, h := range theirHex {
			raw, err := hex.DecodeString(h)
			if err != nil {
				WriteResponse(conn, RespFail)
				return
			}
			copy(theirs[i][:], raw)
		}
		ours, err := Hashlist(n.Blockchain)
		if err != nil {
			WriteResponse(conn, RespFail)
			return
		}
		match := MatchingPrefixLength(ours, theirs)
		WriteResponse(conn, RespOK)
		WriteMessage(conn, MsgHashlistMatchResponse, codec.FixedHex(uint64(match), 4))

	default:
		if n.Logger != nil {
			n.Logger.Warn("rejecting message", zap.Uint8("type", msgType), zap.Error(ErrUnknownMessageType))
		}
		WriteResponse(conn, RespFail)
	}
}

func mustHexDecode(s string) []byte {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return raw
}
