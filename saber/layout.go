package saber

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	StableSwapLayoutSize = 395
)

type StableSwapLayout struct {
	IsInitialized       int8
	IsPaused            int8
	Nonce               int8
	InitialAmpFactor    uint64
	TargetAmpFactor     uint64
	StartRampTs         int64
	StopRampTs          int64
	FutureAdminDeadline int64
	FutureAdminKey      solana.PublicKey
	AdminKey            solana.PublicKey
	SwapA               solana.PublicKey
	SwapB               solana.PublicKey
	PoolMint            solana.PublicKey
	TokenA              solana.PublicKey
	TokenB              solana.PublicKey
	AdminFeeKeyA        solana.PublicKey
	AdminFeeKeyB        solana.PublicKey
	Fees                Fees
}

type Fees struct {
	AdminTradeFeeNumerator      uint64
	AdminTradeFeeDenominator    uint64
	AdminWithdrawFeeNumerator   uint64
	AdminWithdrawFeeDenominator uint64
	TradeFeeNumerator           uint64
	TradeFeeDenominator         uint64
	WithdrawFeeNumerator        uint64
	WithdrawFeeDenominator      uint64
}

func (s *StableSwapLayout) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, StableSwapLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, s)
	return buf.Bytes()
}

func decodeStableSwap(data []byte) (*StableSwapLayout, error) {
	swap := &StableSwapLayout{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, swap); err != nil {
		return nil, err
	}
	return swap, nil
}

type KeyedStableSwap struct {
	Key    solana.PublicKey
	Height uint64
	StableSwapLayout
}
