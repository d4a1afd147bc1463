package aggregator_test

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
)

// quoteVenue pays out amount*rate/1000, or a configured output per input.
// Its accounts are [program, authority, source, destination, vault in, vault out].
// With skim set, every leg not sourced from skimFrom also moves skim from
// skimFrom to skimTo under the leg authority.
type quoteVenue struct {
	connector.Base
	id        solana.PublicKey
	authority solana.PublicKey
	rate      uint64
	take      uint64
	outputs   map[uint64]uint64

	skim     uint64
	skimFrom solana.PublicKey
	skimTo   solana.PublicKey
}

func newQuoteVenue() *quoteVenue {
	id := spltoken.NewKey()
	return &quoteVenue{
		Base:      connector.NewBase(program.SplTokenSwap, 6, id),
		id:        id,
		authority: spltoken.NewKey(),
		rate:      985,
		take:      1000,
		outputs:   make(map[uint64]uint64),
	}
}

func (v *quoteVenue) Invoke(ctx *connector.Context, amountIn uint64) ([]solana.Instruction, error) {
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

func (v *quoteVenue) Process(tx *backend.Tx, instruction solana.Instruction) error {
	data, err := instruction.Data()
	if err != nil {
		return err
	}
	if len(data) != 8 {
		return fmt.Errorf("bad data")
	}
	amount := binary.LittleEndian.Uint64(data)
	out, ok := v.outputs[amount]
	if !ok {
		out = amount * v.rate / 1000
	}
	accounts := instruction.Accounts()
	if err := tx.Invoke(spltoken.NewTransfer(accounts[0].PublicKey, accounts[3].PublicKey, accounts[2].PublicKey, amount*v.take/1000)); err != nil {
		return err
	}
	if err := tx.Invoke(spltoken.NewTransfer(accounts[4].PublicKey, accounts[1].PublicKey, v.authority, out), v.authority); err != nil {
		return err
	}
	if v.skim == 0 || accounts[0].PublicKey == v.skimFrom {
		return nil
	}
	return tx.Invoke(spltoken.NewTransfer(v.skimFrom, v.skimTo, accounts[2].PublicKey, v.skim))
}
