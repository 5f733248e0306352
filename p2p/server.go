package p2p

import (
	"fmt"
	"net"

	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/store"
)

// Server runs the peer-ping overlay. Absence of an upstream peer makes
// this node a leader, which listens for inbound connections; presence of
// QUIBLE_LEADER_MULTIADDR makes it a follower, which dials out instead.
type Server struct {
	store   *store.Store
	peers   []*Peer
	newPeers  chan *Peer
	donePeers chan *Peer
	quit    chan struct{}
}

// New constructs a Server bound to s for persisting ping observations.
func New(s *store.Store) *Server {
	return &Server{
		store:     s,
		newPeers:  make(chan *Peer, 10),
		donePeers: make(chan *Peer, 10),
		quit:      make(chan struct{}),
	}
}

// ListenAndServe runs as a leader: accept inbound peer connections on
// listenAddr until Stop is called.
func (srv *Server) ListenAndServe(listenAddr string) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("p2p: listen: %w", err)
	}
	go srv.peerManager()
	go func() {
		<-srv.quit
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-srv.quit:
				return nil
			default:
				log.Errorf("p2p: accept: %v", err)
				continue
			}
		}
		peer := NewPeer(conn.RemoteAddr().String(), conn, srv.recordPing)
		srv.newPeers <- peer
		peer.Start()
	}
}

// DialAndServe runs as a follower: dial the upstream leader at addr and
// hold the connection open, pinging it, until Stop is called.
func (srv *Server) DialAndServe(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("p2p: dial %s: %w", addr, err)
	}
	go srv.peerManager()
	peer := NewPeer(addr, conn, srv.recordPing)
	srv.newPeers <- peer
	peer.Start()
	<-srv.quit
	return nil
}

// Stop tears down every active peer connection.
func (srv *Server) Stop() {
	close(srv.quit)
	for _, p := range srv.peers {
		p.Stop()
	}
}

func (srv *Server) peerManager() {
	for {
		select {
		case <-srv.quit:
			return
		case p := <-srv.newPeers:
			srv.peers = append(srv.peers, p)
		case p := <-srv.donePeers:
			for i, existing := range srv.peers {
				if existing == p {
					srv.peers = append(srv.peers[:i], srv.peers[i+1:]...)
					break
				}
			}
		}
	}
}

func (srv *Server) recordPing(peerID string, timestamp int64) {
	err := srv.store.Update(func(tx *bbolt.Tx) error {
		return srv.store.PutTrackerPing(tx, store.TrackerPing{PeerID: peerID, Timestamp: timestamp})
	})
	if err != nil {
		log.Errorf("p2p: record ping from %s: %v", peerID, err)
	}
}
