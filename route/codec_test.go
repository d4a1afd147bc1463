package route

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
)

func TestEncodeLayout(t *testing.T) {
	plan := &SwapPlan{
		AmountIn:        10,
		ExpectAmountOut: 9,
		MinReturn:       8,
		Amounts:         []uint64{10},
		Routes: []Route{{
			{Dexes: []program.Dex{program.RaydiumSwap}, Weights: []uint8{100}},
		}},
	}
	data, err := plan.Encode()
	require.NoError(t, err)
	// 3*u64 + (u32 + u64) + u32 routes + u32 hops + (u32 + 1) + (u32 + 1)
	require.Len(t, data, 24+12+4+4+5+5)
	require.Equal(t, uint64(10), binary.LittleEndian.Uint64(data[0:]))
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[24:]))
	require.Equal(t, byte(program.RaydiumSwap), data[48])
	require.Equal(t, byte(100), data[53])

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, plan, decoded)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	plan := singleHopPlan()
	data, err := plan.Encode()
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-1])
	require.ErrorIs(t, err, errcode.ErrInvalidEncoding)

	_, err = Decode(append(data, 0))
	require.ErrorIs(t, err, errcode.ErrInvalidEncoding)

	huge := make([]byte, 28)
	binary.LittleEndian.PutUint32(huge[24:], 1<<30)
	_, err = Decode(huge)
	require.ErrorIs(t, err, errcode.ErrInvalidEncoding)
}
