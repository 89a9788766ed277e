package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/hac-dao/app"
	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url   string
	Voter string
}

var memberArgs queryArguments

var memberCmd = &cobra.Command{
	Use:   "member [address]",
	Short: "Show a member, or every member when no address is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  memberRun,
}

func init() {
	urlFlag(memberCmd, &memberArgs.Url)
}

func memberRun(cmd *cobra.Command, args []string) error {
	var data []byte
	var out any = &app.MembersResult{}
	if len(args) == 1 {
		addr, err := hexAddress(args[0])
		if err != nil {
			return err
		}
		data = addr.Bytes()
		out = &types.Member{}
	}
	return queryAndPrint(memberArgs.Url, "/members/", data, out)
}

var proposalArgs queryArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal [id]",
	Short: "Show a proposal with its outcome, or every proposal when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  proposalRun,
}

func init() {
	urlFlag(proposalCmd, &proposalArgs.Url)
	proposalCmd.Flags().StringVar(&proposalArgs.Voter, "voter", "", "show the vote of this member instead")
}

func proposalRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return queryAndPrint(proposalArgs.Url, "/proposals/", nil, &[]*app.ProposalResult{})
	}
	id, err := hexutil.Decode(args[0])
	if err != nil || len(id) != common.HashLength {
		return fmt.Errorf("invalid proposal id %q", args[0])
	}
	if proposalArgs.Voter != "" {
		voter, err := hexAddress(proposalArgs.Voter)
		if err != nil {
			return err
		}
		return queryAndPrint(proposalArgs.Url, "/votes/", append(id, voter.Bytes()...), &types.Vote{})
	}
	return queryAndPrint(proposalArgs.Url, "/proposals/", id, &app.ProposalResult{})
}

var accountArgs queryArguments

var accountCmd = &cobra.Command{
	Use:   "account <address>",
	Short: "Show the nonce and balance of an account",
	Args:  cobra.ExactArgs(1),
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
}

func accountRun(cmd *cobra.Command, args []string) error {
	addr, err := hexAddress(args[0])
	if err != nil {
		return err
	}
	cli, err := newClient(accountArgs.Url)
	if err != nil {
		return err
	}
	act, err := queryAccount(context.Background(), cli, addr)
	if err != nil {
		return err
	}
	return printJSON(act)
}

func queryAndPrint(url, path string, data []byte, out any) error {
	cli, err := newClient(url)
	if err != nil {
		return err
	}
	if err = query(context.Background(), cli, path, data, out); err != nil {
		return err
	}
	return printJSON(out)
}

// identifyRemote asks the node for a batch id.
func identifyRemote(url string, actions []types.Action, description string) (common.Hash, error) {
	cli, err := newClient(url)
	if err != nil {
		return common.Hash{}, err
	}
	data, err := json.Marshal(&app.IdentifyRequest{Actions: actions, Description: description})
	if err != nil {
		return common.Hash{}, err
	}
	var res app.IdentifyResult
	if err = query(context.Background(), cli, "/identify/", data, &res); err != nil {
		return common.Hash{}, err
	}
	return res.ID, nil
}
