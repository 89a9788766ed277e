package state

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/calehh/hac-dao/crypto"
	"github.com/calehh/hac-dao/tx"
	"github.com/ethereum/go-ethereum/common"
)

// Account holds the replay nonce and native balance of an address.
type Account struct {
	Address common.Address
	Nonce   uint64
	Balance *big.Int
}

type accountSt struct {
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
	Balance string         `json:"balance"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Address: a.Address,
		Nonce:   a.Nonce,
		Balance: a.balance().String(),
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	bal, ok := new(big.Int).SetString(o.Balance, 10)
	if !ok {
		return fmt.Errorf("invalid balance %q", o.Balance)
	}
	a.Address = o.Address
	a.Nonce = o.Nonce
	a.Balance = bal
	return
}

func (a *Account) balance() *big.Int {
	if a.Balance == nil {
		return new(big.Int)
	}
	return a.Balance
}

func (a *Account) Clone() *Account {
	return &Account{
		Address: a.Address,
		Nonce:   a.Nonce,
		Balance: new(big.Int).Set(a.balance()),
	}
}

func accountKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf(KeyAccountBody, addr.Bytes()))
}

// GetAccount never returns nil for a well-formed store: unknown addresses have a zero account.
func (s *State) GetAccount(addr common.Address) (acnt *Account, err error) {
	acnt = &Account{Address: addr, Balance: new(big.Int)}
	_, err = s.getRLP(accountKey(addr), acnt)
	if err != nil {
		return nil, err
	}
	acnt.Address = addr
	return
}

func (s *State) setAccount(acnt *Account) error {
	return s.putRLP(accountKey(acnt.Address), acnt)
}

func (s *State) Balance(addr common.Address) (*big.Int, error) {
	a, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return a.balance(), nil
}

func (s *State) credit(addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	a.Balance = new(big.Int).Add(a.balance(), amount)
	return s.setAccount(a)
}

func (s *State) debit(addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if a.balance().Cmp(amount) < 0 {
		return fmt.Errorf("%w: %v has %v, needs %v", ErrInsufficientBalance, addr, a.balance(), amount)
	}
	a.Balance = new(big.Int).Sub(a.balance(), amount)
	return s.setAccount(a)
}

// Transfer moves amount between two accounts as one step.
func (s *State) Transfer(from, to common.Address, amount *big.Int) error {
	if amount != nil && amount.Sign() < 0 {
		return fmt.Errorf("negative transfer %v", amount)
	}
	return s.atomic(func() error {
		if err := s.debit(from, amount); err != nil {
			return err
		}
		return s.credit(to, amount)
	})
}

// IncNonce consumes the sender's nonce. It is applied outside of the operation
// so that a failed operation still uses up its transaction.
func (s *State) IncNonce(addr common.Address) error {
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	a.Nonce += 1
	return s.setAccount(a)
}

// Verify authenticates a transaction: the signature must recover to its sender and the
// nonce must be the next one. CheckTx allows a gap so senders can queue transactions.
func (s *State) Verify(btx *tx.DAOTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Sender)
	if err != nil {
		return succ, err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = fmt.Errorf("%w: account %v, tx %v", ErrTxNonceInvalid, a.Nonce, btx.Nonce)
		return
	}
	dat, err := btx.SigHash([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	signer, err1 := crypto.RecoverAddress(dat, btx.Sig)
	if err1 != nil {
		err = fmt.Errorf("%w: %v", ErrTxSigInvalid, err1)
		return
	}
	if signer != btx.Sender {
		err = ErrTxSenderMismatch
		return
	}
	succ = true
	return
}
