package main

import (
	"fmt"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type keygenArguments struct {
	Out       string
	Overwrite bool
	Import    string
	Export    bool
}

var keygenArgs keygenArguments

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate or import an account key, or print the address of an existing one",
	Args:  cobra.NoArgs,
	RunE:  keygenRun,
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenArgs.Out, "out", "o", "account.key", "key file")
	keygenCmd.Flags().BoolVar(&keygenArgs.Overwrite, types.FlagOverwrite, false, "replace an existing key file")
	keygenCmd.Flags().StringVar(&keygenArgs.Import, "import", "", "hex private key to store instead of a fresh one")
	keygenCmd.Flags().BoolVar(&keygenArgs.Export, "export", false, "also print the hex private key")
}

func keygenKey(args *keygenArguments) (k *crypto.Key, err error) {
	switch {
	case args.Import != "":
		if k, err = crypto.HexToKey(args.Import); err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		err = k.Save(args.Out, args.Overwrite)
	case args.Overwrite:
		if k, err = crypto.GenerateKey(); err != nil {
			return nil, err
		}
		err = k.Save(args.Out, true)
	default:
		k, err = crypto.LoadOrGenKey(args.Out)
	}
	if err != nil {
		return nil, err
	}
	return k, nil
}

func keygenRun(cmd *cobra.Command, args []string) error {
	k, err := keygenKey(&keygenArgs)
	if err != nil {
		return err
	}
	fmt.Println("address:", k.Address().Hex())
	fmt.Println("pubkey:", hexutil.Encode(k.PublicKey()))
	if keygenArgs.Export {
		fmt.Println("private key:", k.Hex())
	}
	return nil
}
