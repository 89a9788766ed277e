package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	app_config "github.com/calehh/hac-dao/config"
	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "dao node rpc url")
}

// txArguments are shared by every command that submits a transaction.
type txArguments struct {
	Url    string
	Key    string
	Nonce  uint64
	NoSend bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().StringVarP(&args.Key, "key", "k", "./config/"+app_config.DefaultDeployerKey, "account key file")
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "account nonce, queried from the node when 0")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed transaction instead of sending it")
}

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func query(ctx context.Context, cli *http.HTTP, path string, data []byte, out any) error {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return fmt.Errorf("request %v: %w", path, err)
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("query %v: code %d %s", path, res.Response.Code, res.Response.Log)
	}
	return json.Unmarshal(res.Response.Value, out)
}

func queryAccount(ctx context.Context, cli *http.HTTP, addr common.Address) (*state.Account, error) {
	var act state.Account
	if err := query(ctx, cli, "/accounts/", addr.Bytes(), &act); err != nil {
		return nil, err
	}
	return &act, nil
}

func queryParams(ctx context.Context, cli *http.HTTP) (*types.Params, error) {
	var p types.Params
	if err := query(ctx, cli, "/params/", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// sendTx signs payload with the key in args and broadcasts it.
func sendTx(args *txArguments, tp tx.DAOTxType, payload any) error {
	k, err := crypto.LoadKey(args.Key)
	if err != nil {
		return err
	}
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	chainId := gres.Genesis.ChainID
	nonce := args.Nonce
	if nonce == 0 {
		act, err := queryAccount(ctx, cli, k.Address())
		if err != nil {
			return err
		}
		nonce = act.Nonce
	}
	btx := tx.NewDAOTx(tp, nonce, k.Address(), payload)
	if err = btx.Sign(k, chainId); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalDAOTx(btx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	return printJSON(res)
}

func printJSON(v any) error {
	dat, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(dat))
	return err
}

// readActions loads a JSON array of actions from path.
func readActions(path string) ([]types.Action, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var actions []types.Action
	if err := json.Unmarshal(dat, &actions); err != nil {
		return nil, fmt.Errorf("parse actions %v: %w", path, err)
	}
	return actions, nil
}
