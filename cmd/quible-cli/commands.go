package main

import "github.com/urfave/cli"

var checkHealthCommand = cli.Command{
	Name:  "checkhealth",
	Usage: "query node health",
	Action: func(ctx *cli.Context) error {
		var reply struct {
			Status string `json:"status"`
		}
		if err := call(ctx, "CheckHealth", struct{}{}, &reply); err != nil {
			return err
		}
		printJSON(reply)
		return nil
	},
}

var sendRawTransactionCommand = cli.Command{
	Name:      "sendrawtransaction",
	Usage:     "submit the canonical hex encoding of a signed transaction",
	ArgsUsage: "<hex>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return cli.ShowCommandHelp(ctx, "sendrawtransaction")
		}
		var reply struct {
			OK bool `json:"ok"`
		}
		err := call(ctx, "SendRawTransaction", map[string]string{"hex": ctx.Args().First()}, &reply)
		if err != nil {
			return err
		}
		printJSON(reply)
		return nil
	},
}

var requestCertificateCommand = cli.Command{
	Name:      "requestcertificate",
	Usage:     "request a signed certificate attesting a claim",
	ArgsUsage: "<object_id_hex> <claim_hex>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 2 {
			return cli.ShowCommandHelp(ctx, "requestcertificate")
		}
		var reply interface{}
		err := call(ctx, "RequestCertificate", map[string]string{
			"object_id": ctx.Args().Get(0),
			"claim":     ctx.Args().Get(1),
		}, &reply)
		if err != nil {
			return err
		}
		printJSON(reply)
		return nil
	},
}

var fetchUnspentValueOutputsByOwnerCommand = cli.Command{
	Name:      "listunspent",
	Usage:     "list unspent value outputs owned by an address",
	ArgsUsage: "<address20_hex>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return cli.ShowCommandHelp(ctx, "listunspent")
		}
		var reply interface{}
		err := call(ctx, "FetchUnspentValueOutputsByOwner", map[string]string{
			"address": ctx.Args().First(),
		}, &reply)
		if err != nil {
			return err
		}
		printJSON(reply)
		return nil
	},
}

var requestFaucetOutputCommand = cli.Command{
	Name:  "faucet",
	Usage: "request a throwaway-key faucet output",
	Action: func(ctx *cli.Context) error {
		var reply interface{}
		if err := call(ctx, "RequestFaucetOutput", struct{}{}, &reply); err != nil {
			return err
		}
		printJSON(reply)
		return nil
	},
}
