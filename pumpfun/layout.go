package pumpfun

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	GlobalLayoutSize       = 113
	BondingCurveLayoutSize = 81
)

var (
	GlobalDiscriminator       = [8]byte{167, 232, 232, 177, 200, 108, 114, 127}
	BondingCurveDiscriminator = [8]byte{23, 183, 248, 55, 96, 216, 172, 96}
)

type GlobalLayout struct {
	Discriminator               [8]byte
	Initialized                 uint8
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	TokenTotalSupply            uint64
	FeeBasisPoints              uint64
}

type BondingCurveLayout struct {
	Discriminator        [8]byte
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             uint8
	Creator              solana.PublicKey
}

func (g *GlobalLayout) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, GlobalLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, g)
	return buf.Bytes()
}

func (c *BondingCurveLayout) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, BondingCurveLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, c)
	return buf.Bytes()
}

func decodeGlobal(data []byte) (*GlobalLayout, error) {
	global := &GlobalLayout{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, global); err != nil {
		return nil, err
	}
	return global, nil
}

func decodeBondingCurve(data []byte) (*BondingCurveLayout, error) {
	curve := &BondingCurveLayout{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, curve); err != nil {
		return nil, err
	}
	return curve, nil
}
