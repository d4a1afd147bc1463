package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/config"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/route"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/system"
	"github.com/egaotan/solana-router/tokenswap"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.DSN = ":memory:"
	cfg.Log.Level = "error"
	r, err := NewRouter(context.Background(), cfg)
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() {
		require.NoError(t, r.Stop())
	})
	return r
}

func (r *Router) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func encodePlan(t *testing.T, plan *route.SwapPlan) string {
	t.Helper()
	data, err := plan.Encode()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func (r *Router) leg(t *testing.T, name string, authority, source, destination solana.PublicKey) []string {
	t.Helper()
	venue, ok := r.sandbox.Venue(name)
	require.True(t, ok, name)
	keys := venue.Leg(authority, source, destination)
	accounts := make([]string, 0, len(keys))
	for _, key := range keys {
		accounts = append(accounts, key.String())
	}
	return accounts
}

func (r *Router) balance(t *testing.T, key solana.PublicKey) uint64 {
	t.Helper()
	balance, err := r.token.GetBalance(key)
	require.NoError(t, err)
	return balance
}

func (r *Router) lamports(t *testing.T, key solana.PublicKey) uint64 {
	t.Helper()
	lamports, err := system.Lamports(r.reader, key)
	require.NoError(t, err)
	return lamports
}

func singleHop(amountIn, expect, minReturn uint64, weights []uint8, dexes ...program.Dex) *route.SwapPlan {
	return &route.SwapPlan{
		AmountIn:        amountIn,
		ExpectAmountOut: expect,
		MinReturn:       minReturn,
		Amounts:         []uint64{amountIn},
		Routes:          []route.Route{{{Dexes: dexes, Weights: weights}}},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestGetSandbox(t *testing.T) {
	r := newTestRouter(t)
	w := r.do(t, http.MethodGet, "/api/sandbox", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Slot    uint64   `json:"slot"`
		Sandbox *Sandbox `json:"sandbox"`
	}
	decode(t, w, &resp)
	require.Equal(t, r.sandbox.Payer, resp.Sandbox.Payer)
	require.Equal(t, r.sandbox.CustodyAuthority, resp.Sandbox.CustodyAuthority)
	require.Equal(t, program.SOL, resp.Sandbox.Mints[SOL])
	require.Len(t, resp.Sandbox.Venues, len(r.sandbox.Venues))

	venue, ok := resp.Sandbox.Venue("pumpfun:MEME-SOL")
	require.True(t, ok)
	require.Equal(t, program.PumpfunSell, venue.Dex)
	require.Equal(t, program.Pumpfun, venue.Program)
}

func TestGetBalance(t *testing.T) {
	r := newTestRouter(t)
	w := r.do(t, http.MethodGet, "/api/balance?account="+r.sandbox.Accounts[USDC].String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var balance Balance
	decode(t, w, &balance)
	require.Equal(t, r.sandbox.Mints[USDC].String(), balance.Mint)
	require.Equal(t, r.sandbox.Payer.String(), balance.Owner)
	require.Equal(t, uint64(100_000_000_000), balance.Amount.Raw)
	require.Equal(t, "100000.000000", balance.Amount.Ui)

	w = r.do(t, http.MethodGet, "/api/balance?account=nope", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = r.do(t, http.MethodGet, "/api/balance", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalance_HidesUncommittedSwap(t *testing.T) {
	r := newTestRouter(t)
	s := r.sandbox
	rollback := errors.New("rollback")
	err := r.ledger.Atomic(func() error {
		transfer := spltoken.NewTransfer(s.Accounts[USDC], s.Custody[USDC], s.Payer, 700_000_000)
		require.NoError(t, r.ledger.Invoke([]solana.Instruction{transfer}, s.Payer))

		w := r.do(t, http.MethodGet, "/api/balance?account="+s.Accounts[USDC].String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var balance Balance
		decode(t, w, &balance)
		require.Equal(t, uint64(100_000_000_000), balance.Amount.Raw)
		return rollback
	})
	require.ErrorIs(t, err, rollback)
	require.Equal(t, uint64(100_000_000_000), r.balance(t, s.Accounts[USDC]))
}

func TestPostSwap_SingleLeg(t *testing.T) {
	r := newTestRouter(t)
	s := r.sandbox
	venue, _ := s.Venue("tokenswap:USDC-USDT")
	quote, err := tokenswap.NewProgram(program.TokenSwap, r.ledger, nil).Quote(venue.Accounts[0], s.Mints[USDC], 1_000_000)
	require.NoError(t, err)

	w := r.do(t, http.MethodPost, "/api/swap", &SwapRequest{
		OrderId:     1,
		Mode:        "toc",
		Plan:        encodePlan(t, singleHop(1_000_000, quote.AmountOut, quote.AmountOut, []uint8{100}, program.SplTokenSwap)),
		Payer:       s.Payer.String(),
		Source:      s.Accounts[USDC].String(),
		Destination: s.Accounts[USDT].String(),
		Accounts:    r.leg(t, "tokenswap:USDC-USDT", s.Payer, s.Accounts[USDC], s.Accounts[USDT]),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var swap Swap
	decode(t, w, &swap)
	require.Equal(t, "toc", swap.Mode)
	require.Equal(t, uint64(1_000_000), swap.ActualIn.Raw)
	require.Equal(t, "1.000000", swap.ActualIn.Ui)
	require.Equal(t, quote.AmountOut, swap.ActualOut.Raw)
	require.Len(t, swap.Legs, 1)
	require.Equal(t, program.SplTokenSwap.String(), swap.Legs[0].Dex)
	require.Equal(t, uint64(100_000_000_000-1_000_000), r.balance(t, s.Accounts[USDC]))
	require.Equal(t, uint64(100_000_000_000)+quote.AmountOut, r.balance(t, s.Accounts[USDT]))
}

func TestPostSwap_SplitWithSourceCommission(t *testing.T) {
	r := newTestRouter(t)
	s := r.sandbox
	authority, source, destination := s.Payer, s.Accounts[USDC], s.Accounts[USDT]
	accounts := r.leg(t, "tokenswap:USDC-USDT", authority, source, destination)
	accounts = append(accounts, r.leg(t, "saber:USDC-USDT", authority, source, destination)...)
	accounts = append(accounts, r.leg(t, "raydium:USDC-USDT", authority, source, destination)...)

	plan := singleHop(10_000_000, 9_900_000, 9_800_000, []uint8{50, 30, 20},
		program.SplTokenSwap, program.StableSwap, program.RaydiumSwap)
	w := r.do(t, http.MethodPost, "/api/swap", &SwapRequest{
		OrderId:     42,
		Plan:        encodePlan(t, plan),
		Payer:       authority.String(),
		Source:      source.String(),
		Destination: destination.String(),
		Accounts:    accounts,
		Fees: &FeesRequest{
			CommissionRate:      10_000_000,
			CommissionDirection: "source",
			PlatformFeeRate:     2_000,
			CommissionAccount:   s.Commission[USDC].String(),
			PlatformFeeAccount:  s.PlatformFee[USDC].String(),
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var swap Swap
	decode(t, w, &swap)
	require.Len(t, swap.Legs, 3)
	require.Len(t, swap.Hops, 1)
	require.Greater(t, swap.Commission, uint64(0))
	require.Equal(t, swap.Commission, r.balance(t, s.Commission[USDC])+r.balance(t, s.PlatformFee[USDC]))
	require.Equal(t, swap.PlatformFee, r.balance(t, s.PlatformFee[USDC]))
	require.Equal(t, uint64(100_000_000_000)-swap.ActualIn.Raw, r.balance(t, source))
	require.Equal(t, uint64(100_000_000_000)+swap.ActualOut.Raw, r.balance(t, destination))

	var records []*Swap
	handler := r.Handler()
	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/swap?order_id=42", nil))
		if w.Code != http.StatusOK {
			return false
		}
		records = nil
		return json.Unmarshal(w.Body.Bytes(), &records) == nil && len(records) == 1
	}, 5*time.Second, 20*time.Millisecond)
	require.NotZero(t, records[0].Id)
	require.Len(t, records[0].Legs, 3)
	require.Equal(t, swap.ActualOut.Raw, records[0].ActualOut.Raw)

	w = r.do(t, http.MethodGet, "/api/swap?id="+strconv.FormatUint(records[0].Id, 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var record Swap
	decode(t, w, &record)
	require.Equal(t, uint64(42), record.OrderId)
	require.NotEmpty(t, record.Time)
}

func TestPostSwap_TwoHopThroughNative(t *testing.T) {
	r := newTestRouter(t)
	s := r.sandbox
	payer := s.Payer
	plan := &route.SwapPlan{
		AmountIn:        1_000_000_000,
		ExpectAmountOut: 1,
		MinReturn:       1,
		Amounts:         []uint64{1_000_000_000},
		Routes: []route.Route{{
			{Dexes: []program.Dex{program.PumpfunSell}, Weights: []uint8{100}},
			{Dexes: []program.Dex{program.SplTokenSwap}, Weights: []uint8{100}},
		}},
	}
	accounts := r.leg(t, "pumpfun:MEME-SOL", payer, s.Accounts[MEME], s.Accounts[SOL])
	accounts = append(accounts, r.leg(t, "orca:SOL-USDC", payer, s.Accounts[SOL], s.Accounts[USDC])...)
	lamports := r.lamports(t, payer)

	w := r.do(t, http.MethodPost, "/api/swap", &SwapRequest{
		OrderId:     7,
		Plan:        encodePlan(t, plan),
		Payer:       payer.String(),
		Source:      s.Accounts[MEME].String(),
		Destination: s.Accounts[USDC].String(),
		Accounts:    accounts,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var swap Swap
	decode(t, w, &swap)
	require.Len(t, swap.Hops, 2)
	require.Equal(t, program.PumpfunSell.String(), swap.Legs[0].Dex)
	require.Equal(t, swap.Legs[0].AmountOut, swap.Legs[1].AmountIn)
	require.Equal(t, uint64(100_000_000_000), r.balance(t, s.Accounts[SOL]))
	require.Equal(t, uint64(100_000_000_000)+swap.ActualOut.Raw, r.balance(t, s.Accounts[USDC]))
	require.Equal(t, lamports, r.lamports(t, payer))
}

func TestPostSwap_ToBDestinationCommission(t *testing.T) {
	r := newTestRouter(t)
	s := r.sandbox
	authority := s.CustodyAuthority
	accounts := r.leg(t, "saber:USDC-USDT", authority, s.Custody[USDC], s.Custody[USDT])

	w := r.do(t, http.MethodPost, "/api/swap", &SwapRequest{
		OrderId:            9,
		Mode:               "tob",
		Plan:               encodePlan(t, singleHop(5_000_000, 4_900_000, 4_800_000, []uint8{100}, program.StableSwap)),
		Payer:              s.Payer.String(),
		Source:             s.Accounts[USDC].String(),
		Destination:        s.Accounts[USDT].String(),
		SourceCustody:      s.Custody[USDC].String(),
		DestinationCustody: s.Custody[USDT].String(),
		Accounts:           accounts,
		Fees: &FeesRequest{
			CommissionRate:      500,
			CommissionDirection: "destination",
			Schedule:            "v1",
			TrimRate:            10,
			CommissionAccount:   s.Commission[USDT].String(),
			TrimAccount:         s.Trim[USDT].String(),
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var swap Swap
	decode(t, w, &swap)
	require.Equal(t, "tob", swap.Mode)
	require.Greater(t, swap.Commission, uint64(0))
	require.Equal(t, swap.Commission, r.balance(t, s.Commission[USDT]))
	require.Equal(t, swap.Trim, r.balance(t, s.Trim[USDT]))
	require.Zero(t, r.balance(t, s.Custody[USDC]))
	require.Zero(t, r.balance(t, s.Custody[USDT]))
	require.Equal(t, uint64(100_000_000_000)+swap.ActualOut.Raw, r.balance(t, s.Accounts[USDT]))
}

func TestPostSwap_Errors(t *testing.T) {
	r := newTestRouter(t)
	s := r.sandbox
	accounts := r.leg(t, "raydium:USDC-USDT", s.Payer, s.Accounts[USDC], s.Accounts[USDT])
	base := func(plan *route.SwapPlan) *SwapRequest {
		return &SwapRequest{
			Plan:        encodePlan(t, plan),
			Payer:       s.Payer.String(),
			Source:      s.Accounts[USDC].String(),
			Destination: s.Accounts[USDT].String(),
			Accounts:    accounts,
		}
	}

	w := r.do(t, http.MethodPost, "/api/swap", base(singleHop(1_000_000, 2_000_000, 2_000_000, []uint8{100}, program.RaydiumSwap)))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	require.Equal(t, "slippage_violation", resp.Class)
	require.Equal(t, uint64(100_000_000_000), r.balance(t, s.Accounts[USDC]))
	require.Equal(t, uint64(100_000_000_000), r.balance(t, s.Accounts[USDT]))

	w = r.do(t, http.MethodPost, "/api/swap", base(singleHop(1_000_000, 900_000, 900_000, []uint8{90}, program.RaydiumSwap)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp = ErrorResponse{}
	decode(t, w, &resp)
	require.Equal(t, "plan_validation", resp.Class)

	req := base(singleHop(1_000_000, 900_000, 900_000, []uint8{100}, program.RaydiumSwap))
	req.Plan = "not base64!"
	w = r.do(t, http.MethodPost, "/api/swap", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req = base(singleHop(1_000_000, 900_000, 900_000, []uint8{100}, program.RaydiumSwap))
	req.Mode = "b2b"
	w = r.do(t, http.MethodPost, "/api/swap", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = r.do(t, http.MethodPost, "/api/swap", map[string]string{"plan": "AA=="})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSwap_NotFound(t *testing.T) {
	r := newTestRouter(t)
	w := r.do(t, http.MethodGet, "/api/swap?id=999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = r.do(t, http.MethodGet, "/api/swap", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetrics(t *testing.T) {
	r := newTestRouter(t)
	s := r.sandbox
	w := r.do(t, http.MethodPost, "/api/swap", &SwapRequest{
		Plan:        encodePlan(t, singleHop(1_000_000, 2_000_000, 2_000_000, []uint8{100}, program.StableSwap)),
		Payer:       s.Payer.String(),
		Source:      s.Accounts[USDC].String(),
		Destination: s.Accounts[USDT].String(),
		Accounts:    r.leg(t, "saber:USDC-USDT", s.Payer, s.Accounts[USDC], s.Accounts[USDT]),
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = r.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, `router_swaps_total{class="slippage_violation",mode="toc",result="failed"} 1`), body)
	require.True(t, strings.Contains(body, `router_api_requests_total{method="POST",route="/api/swap",status="422"} 1`), body)
	require.False(t, strings.Contains(body, `router_legs_total{dex="StableSwap"}`), body)

	w = r.do(t, http.MethodPost, "/api/swap", &SwapRequest{
		Plan:        encodePlan(t, singleHop(1_000_000, 900_000, 900_000, []uint8{100}, program.StableSwap)),
		Payer:       s.Payer.String(),
		Source:      s.Accounts[USDC].String(),
		Destination: s.Accounts[USDT].String(),
		Accounts:    r.leg(t, "saber:USDC-USDT", s.Payer, s.Accounts[USDC], s.Accounts[USDT]),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = r.do(t, http.MethodGet, "/metrics", nil)
	body = w.Body.String()
	require.True(t, strings.Contains(body, `router_legs_total{dex="StableSwap"} 1`), body)
	require.True(t, strings.Contains(body, `router_swaps_total{class="none",mode="toc",result="ok"} 1`), body)
}
