package swap

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
)

// HopAccounts threads the account pair of one hop into the next. It is made
// fresh for every route and never outlives the call.
type HopAccounts struct {
	LastTo solana.PublicKey
	From   solana.PublicKey
	To     solana.PublicKey
}

func (h *HopAccounts) started() bool {
	return !h.From.IsZero()
}

// Check binds a leg's source and destination to the hop. The first leg fixes
// the pair; every other leg of the hop must agree with it, and the pair must
// start where the previous hop ended.
func (h *HopAccounts) Check(accounts *connector.SwapAccounts) error {
	if h.started() {
		if accounts.Source != h.From || accounts.Destination != h.To {
			return errcode.ErrInvalidHopAccounts.Wrapf("leg %s -> %s, hop %s -> %s", accounts.Source, accounts.Destination, h.From, h.To)
		}
		return nil
	}
	if !h.LastTo.IsZero() && accounts.Source != h.LastTo {
		return errcode.ErrInvalidHopFromAccount.Wrapf("from %s, last to %s", accounts.Source, h.LastTo)
	}
	h.From = accounts.Source
	h.To = accounts.Destination
	return nil
}

// CheckEnds pins the first hop to the route source and the last hop to the
// route destination.
func (h *HopAccounts) CheckEnds(hop, hops int, source, destination solana.PublicKey) error {
	if hop == 0 && h.From != source {
		return errcode.ErrInvalidSourceAccount.Wrapf("hop from %s, source %s", h.From, source)
	}
	if hop == hops-1 && h.To != destination {
		return errcode.ErrInvalidDestinationAccount.Wrapf("hop to %s, destination %s", h.To, destination)
	}
	return nil
}

// Next closes the current hop.
func (h *HopAccounts) Next() {
	h.LastTo = h.To
	h.From = solana.PublicKey{}
	h.To = solana.PublicKey{}
}
