package app

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/aggregator"
	"github.com/egaotan/solana-router/fee"
	"github.com/egaotan/solana-router/route"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/store"
)

const timeLayout = "2006-01-02 15:04:05.000"

type FeesRequest struct {
	CommissionRate      uint64 `json:"commission_rate"`
	CommissionDirection string `json:"commission_direction"`
	PlatformFeeRate     uint64 `json:"platform_fee_rate"`
	TrimRate            uint64 `json:"trim_rate"`
	Schedule            string `json:"schedule"`
	CommissionAccount   string `json:"commission_account"`
	PlatformFeeAccount  string `json:"platform_fee_account"`
	TrimAccount         string `json:"trim_account"`
}

// SwapRequest carries a base64 wire-encoded plan and the flat connector
// account list in base58.
type SwapRequest struct {
	OrderId            uint64       `json:"order_id"`
	Mode               string       `json:"mode"`
	Plan               string       `json:"plan" binding:"required"`
	Payer              string       `json:"payer" binding:"required"`
	Source             string       `json:"source" binding:"required"`
	Destination        string       `json:"destination" binding:"required"`
	SourceCustody      string       `json:"source_custody"`
	DestinationCustody string       `json:"destination_custody"`
	Accounts           []string     `json:"accounts" binding:"required"`
	Fees               *FeesRequest `json:"fees"`
}

type Amount struct {
	Raw uint64 `json:"raw"`
	Ui  string `json:"ui"`
}

type Leg struct {
	Route       int    `json:"route"`
	Hop         int    `json:"hop"`
	Leg         int    `json:"leg"`
	Dex         string `json:"dex"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	AmountIn    uint64 `json:"amount_in"`
	AmountOut   uint64 `json:"amount_out"`
}

type HopTransition struct {
	Route     int    `json:"route"`
	Hop       int    `json:"hop"`
	LastTo    string `json:"last_to"`
	From      string `json:"from"`
	To        string `json:"to"`
	AmountIn  uint64 `json:"amount_in"`
	AmountOut uint64 `json:"amount_out"`
}

type Swap struct {
	Id          uint64           `json:"id,omitempty"`
	OrderId     uint64           `json:"order_id"`
	Mode        string           `json:"mode"`
	Time        string           `json:"time,omitempty"`
	Payer       string           `json:"payer"`
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	AmountIn    *Amount          `json:"amount_in"`
	ActualIn    *Amount          `json:"actual_in"`
	AmountOut   *Amount          `json:"amount_out"`
	ActualOut   *Amount          `json:"actual_out"`
	Commission  uint64           `json:"commission"`
	PlatformFee uint64           `json:"platform_fee"`
	Trim        uint64           `json:"trim"`
	Slot        uint64           `json:"slot"`
	Legs        []*Leg           `json:"legs"`
	Hops        []*HopTransition `json:"hops"`
}

type Balance struct {
	Account string  `json:"account"`
	Mint    string  `json:"mint"`
	Owner   string  `json:"owner"`
	Amount  *Amount `json:"amount"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Class     string `json:"class,omitempty"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
}

func parseKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid public key %q: %w", s, err)
	}
	return key, nil
}

func parseKeys(keys ...*string) ([]solana.PublicKey, error) {
	parsed := make([]solana.PublicKey, 0, len(keys))
	for _, s := range keys {
		key, err := parseKey(*s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, key)
	}
	return parsed, nil
}

func parseDirection(s string) (fee.Direction, error) {
	switch strings.ToLower(s) {
	case "", "source":
		return fee.FromSource, nil
	case "destination":
		return fee.FromDestination, nil
	default:
		return 0, fmt.Errorf("invalid commission direction %q", s)
	}
}

func parseSchedule(s string) (fee.Schedule, error) {
	switch strings.ToLower(s) {
	case "", "v2":
		return fee.CommissionV2, nil
	case "v1":
		return fee.CommissionV1, nil
	default:
		return fee.Schedule{}, fmt.Errorf("invalid commission schedule %q", s)
	}
}

// buildRequest decodes a SwapRequest into an orchestrator request. The plan
// is decoded but not validated here.
func buildRequest(req *SwapRequest, defaultMode aggregator.Mode) (*aggregator.Request, error) {
	mode := defaultMode
	if req.Mode != "" {
		parsed, err := aggregator.ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}
	data, err := base64.StdEncoding.DecodeString(req.Plan)
	if err != nil {
		return nil, fmt.Errorf("plan is not base64: %w", err)
	}
	plan, err := route.Decode(data)
	if err != nil {
		return nil, err
	}
	keys, err := parseKeys(&req.Payer, &req.Source, &req.Destination, &req.SourceCustody, &req.DestinationCustody)
	if err != nil {
		return nil, err
	}
	accounts := make([]solana.PublicKey, 0, len(req.Accounts))
	for _, s := range req.Accounts {
		key, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("invalid account %q: %w", s, err)
		}
		accounts = append(accounts, key)
	}
	request := &aggregator.Request{
		OrderID:            req.OrderId,
		Mode:               mode,
		Plan:               plan,
		Payer:              keys[0],
		SourceAccount:      keys[1],
		DestinationAccount: keys[2],
		SourceCustody:      keys[3],
		DestinationCustody: keys[4],
		Accounts:           accounts,
	}
	if req.Fees == nil {
		return request, nil
	}
	fees := req.Fees
	direction, err := parseDirection(fees.CommissionDirection)
	if err != nil {
		return nil, err
	}
	schedule, err := parseSchedule(fees.Schedule)
	if err != nil {
		return nil, err
	}
	feeKeys, err := parseKeys(&fees.CommissionAccount, &fees.PlatformFeeAccount, &fees.TrimAccount)
	if err != nil {
		return nil, err
	}
	request.Fees = aggregator.Fees{
		CommissionRate:     fees.CommissionRate,
		Direction:          direction,
		PlatformFeeRate:    fees.PlatformFeeRate,
		TrimRate:           fees.TrimRate,
		Schedule:           schedule,
		CommissionAccount:  feeKeys[0],
		PlatformFeeAccount: feeKeys[1],
		TrimAccount:        feeKeys[2],
	}
	return request, nil
}

// amounts renders raw token amounts of one account's mint; unknown accounts
// render with zero decimals.
type amounts struct {
	token    *spltoken.Program
	decimals map[string]uint8
}

func newAmounts(token *spltoken.Program) *amounts {
	return &amounts{token: token, decimals: make(map[string]uint8)}
}

func (a *amounts) of(account string, amount uint64) *Amount {
	decimals, ok := a.decimals[account]
	if !ok {
		decimals = a.lookup(account)
		a.decimals[account] = decimals
	}
	return &Amount{
		Raw: amount,
		Ui:  spltoken.AmountUi(amount, decimals).StringFixed(int32(decimals)),
	}
}

func (a *amounts) lookup(account string) uint8 {
	key, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return 0
	}
	user, err := a.token.GetUser(key)
	if err != nil {
		return 0
	}
	mint, err := a.token.GetToken(user.Mint)
	if err != nil {
		return 0
	}
	return mint.Decimals
}

func buildSwapFromResult(result *aggregator.Result, a *amounts) *Swap {
	return buildSwap(store.NewSwapRecord(result), a)
}

func buildSwap(record *store.SwapRecord, a *amounts) *Swap {
	s := &Swap{
		Id:          record.Id,
		OrderId:     record.OrderId,
		Mode:        record.Mode,
		Payer:       record.Payer,
		Source:      record.Source,
		Destination: record.Destination,
		AmountIn:    a.of(record.Source, record.AmountIn),
		ActualIn:    a.of(record.Source, record.ActualIn),
		AmountOut:   a.of(record.Destination, record.AmountOut),
		ActualOut:   a.of(record.Destination, record.ActualOut),
		Commission:  record.Commission,
		PlatformFee: record.PlatformFee,
		Trim:        record.Trim,
		Slot:        record.Slot,
		Legs:        make([]*Leg, 0, len(record.LegRecords)),
		Hops:        make([]*HopTransition, 0, len(record.HopRecords)),
	}
	if !record.CreatedAt.IsZero() {
		s.Time = record.CreatedAt.Format(timeLayout)
	}
	for _, leg := range record.LegRecords {
		s.Legs = append(s.Legs, &Leg{
			Route:       leg.Route,
			Hop:         leg.Hop,
			Leg:         leg.Leg,
			Dex:         leg.Dex,
			Source:      leg.Source,
			Destination: leg.Destination,
			AmountIn:    leg.AmountIn,
			AmountOut:   leg.AmountOut,
		})
	}
	for _, hop := range record.HopRecords {
		s.Hops = append(s.Hops, &HopTransition{
			Route:     hop.Route,
			Hop:       hop.Hop,
			LastTo:    hop.LastTo,
			From:      hop.FromAccount,
			To:        hop.ToAccount,
			AmountIn:  hop.AmountIn,
			AmountOut: hop.AmountOut,
		})
	}
	return s
}

func buildBalance(user *spltoken.KeyedUser, decimals uint8) *Balance {
	return &Balance{
		Account: user.Key.String(),
		Mint:    user.Mint.String(),
		Owner:   user.Owner.String(),
		Amount: &Amount{
			Raw: user.Amount,
			Ui:  spltoken.AmountUi(user.Amount, decimals).StringFixed(int32(decimals)),
		},
	}
}
