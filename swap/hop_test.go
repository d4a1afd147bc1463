package swap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/spltoken"
)

func TestHopAccounts(t *testing.T) {
	a, b, c := spltoken.NewKey(), spltoken.NewKey(), spltoken.NewKey()
	accounts := &HopAccounts{}

	require.NoError(t, accounts.Check(&connector.SwapAccounts{Source: a, Destination: b}))
	require.NoError(t, accounts.Check(&connector.SwapAccounts{Source: a, Destination: b}))
	require.ErrorIs(t, accounts.Check(&connector.SwapAccounts{Source: a, Destination: c}), errcode.ErrInvalidHopAccounts)
	require.NoError(t, accounts.CheckEnds(0, 2, a, c))
	require.ErrorIs(t, accounts.CheckEnds(0, 2, b, c), errcode.ErrInvalidSourceAccount)

	accounts.Next()
	require.Equal(t, b, accounts.LastTo)
	require.True(t, accounts.From.IsZero())
	require.ErrorIs(t, accounts.Check(&connector.SwapAccounts{Source: a, Destination: c}), errcode.ErrInvalidHopFromAccount)
	require.NoError(t, accounts.Check(&connector.SwapAccounts{Source: b, Destination: c}))
	require.NoError(t, accounts.CheckEnds(1, 2, a, c))
	require.ErrorIs(t, accounts.CheckEnds(1, 2, a, b), errcode.ErrInvalidDestinationAccount)
}
