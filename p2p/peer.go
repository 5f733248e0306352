package p2p

import (
	"encoding/binary"
	"net"
	"sync/atomic"
	"time"

	goerrors "github.com/go-errors/errors"

	"github.com/Quible-Network/quible-node/logging"
)

// pingInterval is the interval at which ping messages are sent, matching
// the teacher's peer.go pingInterval idiom (there scaled to a full minute
// for a Lightning link; here the overlay is best-effort liveness only).
const pingInterval = 10 * time.Second

var log = logging.NewSubsystem("P2P ")

// Peer manages one peer-ping connection: a ping writer loop and a
// reader loop recording every observation it receives.
type Peer struct {
	id       string
	conn     net.Conn
	onPing   func(peerID string, timestamp int64)
	started  int32
	quit     chan struct{}
}

// NewPeer wraps an established connection. id identifies the remote side
// for tracker_pings rows (typically its remote address). onPing is
// invoked once per received ping or pong, from the peer's own
// goroutine.
func NewPeer(id string, conn net.Conn, onPing func(peerID string, timestamp int64)) *Peer {
	return &Peer{id: id, conn: conn, onPing: onPing, quit: make(chan struct{})}
}

// Start launches the peer's read and write (ping) loops. Start is
// idempotent.
func (p *Peer) Start() {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return
	}
	go p.readLoop()
	go p.pingLoop()
}

// Stop closes the underlying connection, unblocking both loops.
func (p *Peer) Stop() {
	close(p.quit)
	p.conn.Close()
}

func (p *Peer) readLoop() {
	for {
		msgType, payload, err := readMessage(p.conn)
		if err != nil {
			select {
			case <-p.quit:
			default:
				log.Debugf("peer %s: read loop exiting: %v", p.id, goerrors.Wrap(err, 0))
			}
			return
		}
		switch msgType {
		case MsgPing, MsgPong:
			ts := int64(binary.LittleEndian.Uint64(payload))
			p.onPing(p.id, ts)
			if msgType == MsgPing {
				p.sendPong()
			}
		}
	}
}

func (p *Peer) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.quit:
			return
		case <-ticker.C:
			p.sendPing()
		}
	}
}

func (p *Peer) sendPing() { p.send(MsgPing) }
func (p *Peer) sendPong() { p.send(MsgPong) }

func (p *Peer) send(msgType MessageType) {
	var payload [8]byte
	binary.LittleEndian.PutUint64(payload[:], uint64(time.Now().Unix()))
	if err := writeMessage(p.conn, msgType, payload[:]); err != nil {
		log.Debugf("peer %s: write failed: %v", p.id, err)
	}
}
