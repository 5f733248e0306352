// Command quible-cli is a thin JSON-RPC client for the quible node,
// adapted from the teacher's cmd/lncli control-plane CLI: same
// urfave/cli app scaffolding, swapped from a gRPC+macaroon transport to
// a plain JSON-RPC 2.0 POST.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[quible-cli] %v\n", err)
	os.Exit(1)
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      string      `json:"id"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func call(ctx *cli.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "quible." + method,
		Params:  [1]interface{}{params},
		ID:      uuid.New().String(),
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(ctx.GlobalString("rpcserver"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: %v", envelope.Error.Message, envelope.Error.Data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func main() {
	app := cli.NewApp()
	app.Name = "quible-cli"
	app.Usage = "control plane for a quible node"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: "http://localhost:9013/",
			Usage: "url of the node's JSON-RPC endpoint",
		},
	}
	app.Commands = []cli.Command{
		checkHealthCommand,
		sendRawTransactionCommand,
		requestCertificateCommand,
		fetchUnspentValueOutputsByOwnerCommand,
		requestFaucetOutputCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
