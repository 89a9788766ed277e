package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type joinArguments struct {
	txArguments
	Payment string
}

var joinArgs joinArguments

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Pay the membership fee and join the DAO",
	Args:  cobra.NoArgs,
	RunE:  joinRun,
}

func init() {
	txFlags(joinCmd, &joinArgs.txArguments)
	joinCmd.Flags().StringVarP(&joinArgs.Payment, "payment", "p", "", "payment in wei, the membership fee when empty")
}

func joinRun(cmd *cobra.Command, args []string) error {
	var payment *big.Int
	if joinArgs.Payment != "" {
		var ok bool
		payment, ok = new(big.Int).SetString(joinArgs.Payment, 10)
		if !ok {
			return fmt.Errorf("invalid payment %q", joinArgs.Payment)
		}
	} else {
		cli, err := newClient(joinArgs.Url)
		if err != nil {
			return err
		}
		p, err := queryParams(context.Background(), cli)
		if err != nil {
			return err
		}
		payment = p.MembershipFee
	}
	return sendTx(&joinArgs.txArguments, tx.DAOTxTypeJoin, &tx.JoinTx{Payment: payment})
}

type batchArguments struct {
	txArguments
	Actions     string
	Description string
}

func batchFlags(cmd *cobra.Command, args *batchArguments) {
	txFlags(cmd, &args.txArguments)
	cmd.Flags().StringVarP(&args.Actions, "actions", "a", "", "JSON file holding the action list")
	cmd.Flags().StringVarP(&args.Description, "description", "d", "", "proposal description")
	_ = cmd.MarkFlagRequired("actions")
}

var proposeArgs batchArguments

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Submit a proposal",
	Args:  cobra.NoArgs,
	RunE:  proposeRun,
}

func init() {
	batchFlags(proposeCmd, &proposeArgs)
}

func proposeRun(cmd *cobra.Command, args []string) error {
	actions, err := readActions(proposeArgs.Actions)
	if err != nil {
		return err
	}
	id, err := types.HashProposal(actions, proposeArgs.Description)
	if err != nil {
		return err
	}
	fmt.Println("proposal id:", id.Hex())
	return sendTx(&proposeArgs.txArguments, tx.DAOTxTypePropose, &tx.ProposeTx{Actions: actions, Description: proposeArgs.Description})
}

var executeArgs batchArguments

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute a passed proposal once its timelock has elapsed",
	Args:  cobra.NoArgs,
	RunE:  executeRun,
}

func init() {
	batchFlags(executeCmd, &executeArgs)
}

func executeRun(cmd *cobra.Command, args []string) error {
	actions, err := readActions(executeArgs.Actions)
	if err != nil {
		return err
	}
	return sendTx(&executeArgs.txArguments, tx.DAOTxTypeExecute, &tx.ExecuteTx{Actions: actions, Description: executeArgs.Description})
}

type voteArguments struct {
	txArguments
	Proposal string
	Choice   string
}

func voteFlags(cmd *cobra.Command, args *voteArguments) {
	cmd.Flags().StringVarP(&args.Proposal, "proposal", "p", "", "proposal id")
	cmd.Flags().StringVarP(&args.Choice, "choice", "c", "for", "for, against or abstain")
	_ = cmd.MarkFlagRequired("proposal")
}

func (a *voteArguments) parse() (common.Hash, types.VoteChoice, error) {
	id, err := hexutil.Decode(a.Proposal)
	if err != nil || len(id) != common.HashLength {
		return common.Hash{}, 0, fmt.Errorf("invalid proposal id %q", a.Proposal)
	}
	choice, ok := types.ParseVoteChoice(a.Choice)
	if !ok {
		return common.Hash{}, 0, fmt.Errorf("invalid choice %q", a.Choice)
	}
	return common.BytesToHash(id), choice, nil
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote on a proposal",
	Args:  cobra.NoArgs,
	RunE:  voteRun,
}

func init() {
	txFlags(voteCmd, &voteArgs.txArguments)
	voteFlags(voteCmd, &voteArgs)
}

func voteRun(cmd *cobra.Command, args []string) error {
	id, choice, err := voteArgs.parse()
	if err != nil {
		return err
	}
	return sendTx(&voteArgs.txArguments, tx.DAOTxTypeVote, &tx.VoteTx{Proposal: id, Choice: choice})
}

var signVoteArgs voteArguments

var signVoteCmd = &cobra.Command{
	Use:   "sign-vote",
	Short: "Sign a vote off-chain for someone else to relay",
	Args:  cobra.NoArgs,
	RunE:  signVoteRun,
}

func init() {
	urlFlag(signVoteCmd, &signVoteArgs.Url)
	signVoteCmd.Flags().StringVarP(&signVoteArgs.Key, "key", "k", "", "voter key file")
	voteFlags(signVoteCmd, &signVoteArgs)
	_ = signVoteCmd.MarkFlagRequired("key")
}

func signVoteRun(cmd *cobra.Command, args []string) error {
	id, choice, err := signVoteArgs.parse()
	if err != nil {
		return err
	}
	k, err := crypto.LoadKey(signVoteArgs.Key)
	if err != nil {
		return err
	}
	cli, err := newClient(signVoteArgs.Url)
	if err != nil {
		return err
	}
	p, err := queryParams(context.Background(), cli)
	if err != nil {
		return err
	}
	domain := crypto.VoteDomain{Name: p.DomainName, ChainID: p.ChainID, VerifyingContract: p.Address}
	sig, err := crypto.SignVote(k, domain, id, uint8(choice))
	if err != nil {
		return err
	}
	return printJSON(&tx.VoteBySigTx{Proposal: id, Choice: choice, Voter: k.Address(), Signature: sig})
}

type relayVoteArguments struct {
	voteArguments
	Voter     string
	Signature string
}

var relayVoteArgs relayVoteArguments

var relayVoteCmd = &cobra.Command{
	Use:   "relay-vote",
	Short: "Submit a vote signed by another member",
	Args:  cobra.NoArgs,
	RunE:  relayVoteRun,
}

func init() {
	txFlags(relayVoteCmd, &relayVoteArgs.txArguments)
	voteFlags(relayVoteCmd, &relayVoteArgs.voteArguments)
	relayVoteCmd.Flags().StringVarP(&relayVoteArgs.Voter, "voter", "", "", "address of the signer, checked against the signature")
	relayVoteCmd.Flags().StringVarP(&relayVoteArgs.Signature, "sig", "s", "", "65 byte vote signature in hex")
	_ = relayVoteCmd.MarkFlagRequired("sig")
}

func relayVoteRun(cmd *cobra.Command, args []string) error {
	id, choice, err := relayVoteArgs.parse()
	if err != nil {
		return err
	}
	sig, err := hexutil.Decode(relayVoteArgs.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	var voter common.Address
	if relayVoteArgs.Voter != "" {
		if !common.IsHexAddress(relayVoteArgs.Voter) {
			return fmt.Errorf("invalid voter %q", relayVoteArgs.Voter)
		}
		voter = common.HexToAddress(relayVoteArgs.Voter)
	}
	return sendTx(&relayVoteArgs.txArguments, tx.DAOTxTypeVoteBySig, &tx.VoteBySigTx{
		Proposal:  id,
		Choice:    choice,
		Voter:     voter,
		Signature: sig,
	})
}

type identifyArguments struct {
	Url         string
	Remote      bool
	Actions     string
	Description string
}

var identifyArgs identifyArguments

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Print the id of a proposal batch",
	Args:  cobra.NoArgs,
	RunE:  identifyRun,
}

func init() {
	urlFlag(identifyCmd, &identifyArgs.Url)
	identifyCmd.Flags().BoolVar(&identifyArgs.Remote, "remote", false, "also derive the id on the node and compare")
	identifyCmd.Flags().StringVarP(&identifyArgs.Actions, "actions", "a", "", "JSON file holding the action list")
	identifyCmd.Flags().StringVarP(&identifyArgs.Description, "description", "d", "", "proposal description")
	_ = identifyCmd.MarkFlagRequired("actions")
}

func identifyRun(cmd *cobra.Command, args []string) error {
	actions, err := readActions(identifyArgs.Actions)
	if err != nil {
		return err
	}
	id, err := types.HashProposal(actions, identifyArgs.Description)
	if err != nil {
		return err
	}
	fmt.Println(id.Hex())
	if identifyArgs.Remote {
		remote, err := identifyRemote(identifyArgs.Url, actions, identifyArgs.Description)
		if err != nil {
			return err
		}
		if remote != id {
			return fmt.Errorf("node derived %v", remote.Hex())
		}
	}
	return nil
}

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Build proposal actions",
}

type buyNftArguments struct {
	DAO         string
	Marketplace string
	NftContract string
	NftID       string
	Price       string
}

var buyNftArgs buyNftArguments

var buyNftCmd = &cobra.Command{
	Use:   "buy-nft",
	Short: "Print the self-call action that buys an item from a marketplace",
	Args:  cobra.NoArgs,
	RunE:  buyNftRun,
}

func init() {
	buyNftCmd.Flags().StringVar(&buyNftArgs.DAO, "dao", "", "DAO address")
	buyNftCmd.Flags().StringVar(&buyNftArgs.Marketplace, "marketplace", "", "marketplace address")
	buyNftCmd.Flags().StringVar(&buyNftArgs.NftContract, "nft", "", "item contract address")
	buyNftCmd.Flags().StringVar(&buyNftArgs.NftID, "id", "", "item id")
	buyNftCmd.Flags().StringVar(&buyNftArgs.Price, "price", "", "price in wei")
	actionCmd.AddCommand(buyNftCmd)
}

var errBadAddress = errors.New("invalid address")

func hexAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", errBadAddress, s)
	}
	return common.HexToAddress(s), nil
}

func buyNftRun(cmd *cobra.Command, args []string) error {
	var (
		a   types.BuyNftArgs
		err error
		ok  bool
	)
	dao, err := hexAddress(buyNftArgs.DAO)
	if err != nil {
		return err
	}
	if a.Marketplace, err = hexAddress(buyNftArgs.Marketplace); err != nil {
		return err
	}
	if a.NftContract, err = hexAddress(buyNftArgs.NftContract); err != nil {
		return err
	}
	if a.NftID, ok = new(big.Int).SetString(buyNftArgs.NftID, 10); !ok {
		return fmt.Errorf("invalid item id %q", buyNftArgs.NftID)
	}
	if a.Price, ok = new(big.Int).SetString(buyNftArgs.Price, 10); !ok {
		return fmt.Errorf("invalid price %q", buyNftArgs.Price)
	}
	payload, err := types.EncodeBuyNft(a)
	if err != nil {
		return err
	}
	return printJSON([]types.Action{{Kind: types.ActionSelfCall, Target: dao, Value: new(big.Int), Payload: payload}})
}
