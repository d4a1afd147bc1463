package backend

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	MultipleAccountSliceSize = 100
)

func (backend *Backend) Accounts(pubkeys []solana.PublicKey) ([]*Account, error) {
	return backend.getAccountsFromChain(pubkeys)
}

func (backend *Backend) getAccountsFromChain(pubkeys []solana.PublicKey) ([]*Account, error) {
	accounts := make([]*Account, 0, len(pubkeys))
	index, end := 0, 0
	for index < len(pubkeys) {
		if end = index + MultipleAccountSliceSize; end > len(pubkeys) {
			end = len(pubkeys)
		}
		getMultipleAccountsRsp, err := backend.rpcClient.GetMultipleAccountsWithOpts(backend.ctx, pubkeys[index:end],
			&rpc.GetMultipleAccountsOpts{Encoding: solana.EncodingBase64})
		if err != nil {
			return nil, fmt.Errorf("get multiple accounts: %w", err)
		}
		if len(getMultipleAccountsRsp.Value) != end-index {
			return nil, fmt.Errorf("get accounts err, expected %d accounts, got %d", end-index, len(getMultipleAccountsRsp.Value))
		}
		for i, account := range getMultipleAccountsRsp.Value {
			accounts = append(accounts, &Account{
				PubKey:  pubkeys[index+i],
				Height:  getMultipleAccountsRsp.Context.Slot,
				Account: account,
			})
		}
		index = end
	}
	backend.logger.Debug("fetched accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}

func (backend *Backend) Account(pubkey solana.PublicKey) (*Account, error) {
	response, err := backend.rpcClient.GetAccountInfoWithOpts(backend.ctx, pubkey,
		&rpc.GetAccountInfoOpts{Encoding: solana.EncodingBase64})
	if errors.Is(err, rpc.ErrNotFound) {
		return &Account{PubKey: pubkey}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", pubkey, err)
	}
	return &Account{
		PubKey:  pubkey,
		Height:  response.Context.Slot,
		Account: response.Value,
	}, nil
}
