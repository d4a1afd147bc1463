package spltoken

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	TokenLayoutSize = 165
	MintLayoutSize  = 82
)

const (
	AccountStateUninitialized = uint8(0)
	AccountStateInitialized   = uint8(1)
	AccountStateFrozen        = uint8(2)
)

var optionSome = [4]byte{1, 0, 0, 0}

type UserLayout struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       [4]byte
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       [4]byte
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption [4]byte
	CloseAuthority       solana.PublicKey
}

// Native reports whether this is a wrapped native-coin account; IsNative
// then holds the rent reserve that is not part of Amount.
func (u *UserLayout) Native() bool {
	return u.IsNativeOption == optionSome
}

func (u *UserLayout) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, TokenLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, u)
	return buf.Bytes()
}

type TokenLayout struct {
	MintAuthorityOption   [4]byte
	MintAuthority         solana.PublicKey
	Supply                uint64
	Decimals              byte
	IsInitialized         uint8
	FreezeAuthorityOption [4]byte
	FreezeAuthority       solana.PublicKey
}

func (t *TokenLayout) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, MintLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, t)
	return buf.Bytes()
}

type KeyedUser struct {
	Key    solana.PublicKey
	Height uint64
	UserLayout
}

type KeyedToken struct {
	Key    solana.PublicKey
	Height uint64
	TokenLayout
}
