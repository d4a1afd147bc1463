package swap_test

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
)

// fixedVenue is a test venue paying a configured output per input. Its
// accounts are [program, authority, source, destination, vault in, vault out].
type fixedVenue struct {
	connector.Base
	id        solana.PublicKey
	authority solana.PublicKey
	outputs   map[uint64]uint64
	take      func(amount uint64) uint64
}

func newFixedVenue() *fixedVenue {
	id := spltoken.NewKey()
	return &fixedVenue{
		Base:      connector.NewBase(program.SplTokenSwap, 6, id),
		id:        id,
		authority: spltoken.NewKey(),
		outputs:   make(map[uint64]uint64),
	}
}

func (v *fixedVenue) quote(amount uint64) uint64 {
	if out, ok := v.outputs[amount]; ok {
		return out
	}
	return amount - amount/100
}

func (v *fixedVenue) Invoke(ctx *connector.Context, amountIn uint64) ([]solana.Instruction, error) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, amountIn)
	accounts := ctx.Accounts
	return []solana.Instruction{program.NewInstruction(v.id, data,
		program.Writable(accounts.Source),
		program.Writable(accounts.Destination),
		program.Signer(accounts.Authority),
		program.Writable(accounts.Venue[0]),
		program.Writable(accounts.Venue[1]),
	)}, nil
}

func (v *fixedVenue) Process(tx *backend.Tx, instruction solana.Instruction) error {
	data, err := instruction.Data()
	if err != nil {
		return err
	}
	if len(data) != 8 {
		return fmt.Errorf("bad data")
	}
	amount := binary.LittleEndian.Uint64(data)
	accounts := instruction.Accounts()
	taken := amount
	if v.take != nil {
		taken = v.take(amount)
	}
	if err := tx.Invoke(spltoken.NewTransfer(accounts[0].PublicKey, accounts[3].PublicKey, accounts[2].PublicKey, taken)); err != nil {
		return err
	}
	return tx.Invoke(spltoken.NewTransfer(accounts[4].PublicKey, accounts[1].PublicKey, v.authority, v.quote(amount)), v.authority)
}

// liar reports one more than it paid.
type liar struct {
	*fixedVenue
}

func (l *liar) Dex() program.Dex {
	return program.StableSwap
}

func (l *liar) AfterInvoke(ctx *connector.Context, hop int, signer solana.PublicKey, baseline uint64) (uint64, error) {
	out, err := l.fixedVenue.AfterInvoke(ctx, hop, signer, baseline)
	return out + 1, err
}
