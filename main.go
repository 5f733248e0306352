package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/Quible-Network/quible-node/cert"
	"github.com/Quible-Network/quible-node/faucet"
	"github.com/Quible-Network/quible-node/logging"
	"github.com/Quible-Network/quible-node/p2p"
	"github.com/Quible-Network/quible-node/proposer"
	"github.com/Quible-Network/quible-node/rpc"
	"github.com/Quible-Network/quible-node/sign"
	"github.com/Quible-Network/quible-node/store"

	flags "github.com/jessevdk/go-flags"
)

var shutdownChannel = make(chan struct{})

func quibleMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	keyBytes, err := cfg.signerKeyBytes()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	signer, err := sign.ParsePrivateKey(keyBytes)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Log.Infof("node address %x", signer.Address())

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer db.Close()

	prop := proposer.New(db, signer, proposer.SystemClock{})
	done := make(chan struct{})
	go prop.Run(time.Now(), done)
	defer close(done)

	certIssuer := cert.New(db, signer)
	faucetSvc := faucet.New(db, signer)
	go faucetSvc.Run(done)

	svc := &rpc.Service{Store: db, Cert: certIssuer, Faucet: faucetSvc}
	handler := rpc.NewHandler(svc)
	rpcAddr := ":" + strconv.Itoa(cfg.RPCPort)
	rpcServer := &http.Server{Addr: rpcAddr, Handler: handler}
	go func() {
		logging.Log.Infof("RPC listening on %s", rpcAddr)
		if err := rpcServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Log.Errorf("rpc server: %v", err)
		}
	}()
	defer rpcServer.Close()

	p2pSrv := p2p.New(db)
	p2pAddr := ":" + strconv.Itoa(cfg.P2PPort)
	if cfg.isLeader() {
		go func() {
			logging.Log.Infof("p2p leader listening on %s", p2pAddr)
			if err := p2pSrv.ListenAndServe(p2pAddr); err != nil {
				logging.Log.Errorf("p2p server: %v", err)
			}
		}()
	} else {
		go func() {
			logging.Log.Infof("p2p following %s", cfg.LeaderMultiaddr)
			if err := p2pSrv.DialAndServe(cfg.LeaderMultiaddr); err != nil {
				logging.Log.Errorf("p2p client: %v", err)
			}
		}()
	}
	defer p2pSrv.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-shutdownChannel:
	}
	logging.Log.Info("shutdown complete")
	return nil
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := quibleMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
