package spltoken

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
)

// CreateMint seeds a mint account on the ledger.
func CreateMint(l *backend.Ledger, mint solana.PublicKey, decimals uint8) {
	token := TokenLayout{
		Decimals:      decimals,
		IsInitialized: 1,
	}
	l.SetAccount(mint, backend.NewRpcAccount(program.MintAccountRent, program.Token, token.Encode()))
}

// CreateUser seeds an initialized token account holding amount.
func CreateUser(l *backend.Ledger, key, mint, owner solana.PublicKey, amount uint64) {
	user := UserLayout{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  AccountStateInitialized,
	}
	l.SetAccount(key, backend.NewRpcAccount(program.TokenAccountRent, program.Token, user.Encode()))
}

// CreateNativeUser seeds a wrapped native-coin account. Its lamports are the
// rent reserve plus amount.
func CreateNativeUser(l *backend.Ledger, key, owner solana.PublicKey, amount uint64) {
	user := UserLayout{
		Mint:           program.SOL,
		Owner:          owner,
		Amount:         amount,
		State:          AccountStateInitialized,
		IsNativeOption: optionSome,
		IsNative:       program.TokenAccountRent,
	}
	l.SetAccount(key, backend.NewRpcAccount(program.TokenAccountRent+amount, program.Token, user.Encode()))
}

func NewKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}
