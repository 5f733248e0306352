package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultRPCPort = 9013
	defaultP2PPort = 9014
)

// config is loaded once at startup, from the environment or CLI flags
// (a flag overrides its environment variable), mirroring lndMain's
// loadConfig/cfg idiom. No config file is read.
type config struct {
	SignerKey     string `long:"signerkey" env:"QUIBLE_SIGNER_KEY" description:"32-byte secp256k1 signing key, 64 hex chars"`
	SignerKeyFile string `long:"signerkeyfile" env:"QUIBLE_SIGNER_KEY_FILE" description:"path to a file holding the signing key"`

	RPCPort int `long:"rpcport" env:"QUIBLE_RPC_PORT" default:"9013" description:"JSON-RPC listen port"`
	P2PPort int `long:"p2pport" env:"QUIBLE_P2P_PORT" default:"9014" description:"peer-ping listen port"`

	DatabaseURL string `long:"databaseurl" env:"QUIBLE_DATABASE_URL" description:"bolt://path or memory://, default memory"`

	LeaderMultiaddr string `long:"leadermultiaddr" env:"QUIBLE_LEADER_MULTIADDR" description:"upstream peer to follow; absence makes this node a leader"`
}

// loadConfig parses CLI flags (with environment fallback via the env
// tags above) into a config, applying defaults and validating the
// signing key source.
func loadConfig() (*config, error) {
	cfg := &config{
		RPCPort: defaultRPCPort,
		P2PPort: defaultP2PPort,
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.SignerKey == "" && cfg.SignerKeyFile != "" {
		raw, err := os.ReadFile(cfg.SignerKeyFile)
		if err != nil {
			return nil, fmt.Errorf("config: read signer key file: %w", err)
		}
		cfg.SignerKey = strings.TrimSpace(string(raw))
	}
	if cfg.SignerKey == "" {
		return nil, fmt.Errorf("config: one of QUIBLE_SIGNER_KEY or QUIBLE_SIGNER_KEY_FILE is required")
	}
	if _, err := hex.DecodeString(cfg.SignerKey); err != nil {
		return nil, fmt.Errorf("config: signer key is not valid hex: %w", err)
	}

	return cfg, nil
}

func (c *config) signerKeyBytes() ([]byte, error) {
	return hex.DecodeString(c.SignerKey)
}

// isLeader reports whether this node initializes the ping log table as a
// leader rather than following an upstream peer.
func (c *config) isLeader() bool {
	return c.LeaderMultiaddr == ""
}
