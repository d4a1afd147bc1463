package app

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/pumpfun"
	"github.com/egaotan/solana-router/raydium"
	"github.com/egaotan/solana-router/saber"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/system"
	"github.com/egaotan/solana-router/tokenswap"
)

const (
	USDC = "USDC"
	USDT = "USDT"
	SOL  = "SOL"
	MEME = "MEME"
)

var symbols = []string{USDC, USDT, SOL, MEME}

var decimals = map[string]uint8{USDC: 6, USDT: 6, SOL: 9, MEME: 6}

// Venue is one seeded pool. Accounts are the venue accounts that follow the
// program, authority, source and destination of a connector leg.
type Venue struct {
	Name        string             `json:"name"`
	Dex         program.Dex        `json:"dex"`
	Program     solana.PublicKey   `json:"program"`
	Source      string             `json:"source"`
	Destination string             `json:"destination"`
	Accounts    []solana.PublicKey `json:"accounts"`
}

// Leg builds the full connector account list of the venue.
func (v *Venue) Leg(authority, source, destination solana.PublicKey) []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, connector.CommonAccountsLen+len(v.Accounts))
	keys = append(keys, v.Program, authority, source, destination)
	return append(keys, v.Accounts...)
}

// Sandbox is the seeded ledger state swaps run against.
type Sandbox struct {
	Mints            map[string]solana.PublicKey `json:"mints"`
	Payer            solana.PublicKey            `json:"payer"`
	Accounts         map[string]solana.PublicKey `json:"accounts"`
	CustodyAuthority solana.PublicKey            `json:"custody_authority"`
	Custody          map[string]solana.PublicKey `json:"custody"`
	Commission       map[string]solana.PublicKey `json:"commission"`
	PlatformFee      map[string]solana.PublicKey `json:"platform_fee"`
	Trim             map[string]solana.PublicKey `json:"trim"`
	Venues           []*Venue                    `json:"venues"`
}

// Venue returns the seeded venue called name.
func (s *Sandbox) Venue(name string) (*Venue, bool) {
	for _, venue := range s.Venues {
		if venue.Name == name {
			return venue, true
		}
	}
	return nil, false
}

// Symbol resolves a mint back to its sandbox symbol.
func (s *Sandbox) Symbol(mint solana.PublicKey) (string, bool) {
	for symbol, key := range s.Mints {
		if key == mint {
			return symbol, true
		}
	}
	return "", false
}

// registerProcessors installs every program a sandbox swap can reach.
func registerProcessors(l *backend.Ledger, logger *zap.Logger) {
	l.Register(program.Token, spltoken.NewProcessor(logger))
	l.Register(program.System, system.NewProgram(logger))
	for _, id := range []solana.PublicKey{program.TokenSwap, program.OrcaV1, program.OrcaV2} {
		l.Register(id, tokenswap.NewProcessor(id, logger))
	}
	l.Register(program.Saber, saber.NewProcessor(logger))
	l.Register(program.Raydium, raydium.NewProcessor(logger))
	l.Register(program.Pumpfun, pumpfun.NewProcessor(logger))
}

// seedSandbox creates the mints, pools, payer and fee accounts. Every payer
// token account starts with funding raw units; the payer and custody
// authority wallets hold lamports for native-coin venues.
func seedSandbox(l *backend.Ledger, custodyAuthority solana.PublicKey, funding, lamports uint64) (*Sandbox, error) {
	s := &Sandbox{
		Mints:            map[string]solana.PublicKey{SOL: program.SOL},
		Payer:            spltoken.NewKey(),
		Accounts:         make(map[string]solana.PublicKey),
		CustodyAuthority: custodyAuthority,
		Custody:          make(map[string]solana.PublicKey),
		Commission:       make(map[string]solana.PublicKey),
		PlatformFee:      make(map[string]solana.PublicKey),
		Trim:             make(map[string]solana.PublicKey),
	}
	for _, symbol := range symbols {
		if _, ok := s.Mints[symbol]; !ok {
			s.Mints[symbol] = spltoken.NewKey()
		}
		spltoken.CreateMint(l, s.Mints[symbol], decimals[symbol])
	}

	system.CreateWallet(l, s.Payer, lamports)
	system.CreateWallet(l, custodyAuthority, lamports)
	for _, symbol := range symbols {
		s.Accounts[symbol] = s.user(l, symbol, s.Payer, funding)
		s.Custody[symbol] = s.user(l, symbol, custodyAuthority, 0)
		s.Commission[symbol] = s.user(l, symbol, spltoken.NewKey(), 0)
		s.PlatformFee[symbol] = s.user(l, symbol, spltoken.NewKey(), 0)
		s.Trim[symbol] = s.user(l, symbol, spltoken.NewKey(), 0)
	}

	if err := s.seedPools(l); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sandbox) user(l *backend.Ledger, symbol string, owner solana.PublicKey, amount uint64) solana.PublicKey {
	key := spltoken.NewKey()
	if symbol == SOL {
		spltoken.CreateNativeUser(l, key, owner, amount)
	} else {
		spltoken.CreateUser(l, key, s.Mints[symbol], owner, amount)
	}
	return key
}

func (s *Sandbox) seedPools(l *backend.Ledger) error {
	usdc, usdt, sol, meme := s.Mints[USDC], s.Mints[USDT], s.Mints[SOL], s.Mints[MEME]

	constantProduct := tokenswap.Fees{
		TradeFeeNumerator:        25,
		TradeFeeDenominator:      10_000,
		OwnerTradeFeeNumerator:   5,
		OwnerTradeFeeDenominator: 10_000,
	}
	splPool, err := tokenswap.CreatePool(l, tokenswap.PoolConfig{
		Program:  program.TokenSwap,
		MintA:    usdc,
		MintB:    usdt,
		ReserveA: 10_000_000_000_000,
		ReserveB: 10_000_000_000_000,
		Fees:     constantProduct,
		Curve:    tokenswap.SwapCurve{CurveType: tokenswap.ConstantProduct},
	})
	if err != nil {
		return fmt.Errorf("seed token swap pool: %w", err)
	}
	s.addTokenSwap("tokenswap", splPool, USDC, USDT)

	orcaPool, err := tokenswap.CreatePool(l, tokenswap.PoolConfig{
		Program:  program.OrcaV1,
		MintA:    sol,
		MintB:    usdc,
		ReserveA: 100_000_000_000_000,
		ReserveB: 15_000_000_000_000,
		Fees:     constantProduct,
		Curve:    tokenswap.SwapCurve{CurveType: tokenswap.ConstantProduct},
	})
	if err != nil {
		return fmt.Errorf("seed orca pool: %w", err)
	}
	s.addTokenSwap("orca", orcaPool, SOL, USDC)

	saberPool, err := saber.CreatePool(l, saber.PoolConfig{
		MintA:    usdc,
		MintB:    usdt,
		ReserveA: 10_000_000_000_000,
		ReserveB: 10_000_000_000_000,
		Amp:      100,
		Fees: saber.Fees{
			AdminTradeFeeNumerator:   50,
			AdminTradeFeeDenominator: 100,
			TradeFeeNumerator:        4,
			TradeFeeDenominator:      10_000,
		},
	})
	if err != nil {
		return fmt.Errorf("seed saber pool: %w", err)
	}
	for _, pair := range [][2]string{{USDC, USDT}, {USDT, USDC}} {
		keys := saberPool.Accounts(solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, s.Mints[pair[0]])
		s.addVenue("saber", program.StableSwap, pair[0], pair[1], keys)
	}

	raydiumPool, err := raydium.CreatePool(l, raydium.PoolConfig{
		CoinMint:    usdc,
		PcMint:      usdt,
		CoinReserve: 10_000_000_000_000,
		PcReserve:   10_000_000_000_000,
		Fees: raydium.FeesLayout{
			TradeFeeNumerator:   25,
			TradeFeeDenominator: 10_000,
			SwapFeeNumerator:    25,
			SwapFeeDenominator:  10_000,
		},
	})
	if err != nil {
		return fmt.Errorf("seed raydium pool: %w", err)
	}
	keys := raydiumPool.Accounts(solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{})
	s.addVenue("raydium", program.RaydiumSwap, USDC, USDT, keys)
	s.addVenue("raydium", program.RaydiumSwap, USDT, USDC, keys)

	curve := pumpfun.CreateCurve(l, pumpfun.CurveConfig{
		Mint:                 meme,
		VirtualTokenReserves: 1_000_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    800_000_000_000_000,
		RealSolReserves:      20_000_000_000,
		FeeBasisPoints:       100,
	})
	s.addVenue("pumpfun", program.PumpfunSell, MEME, SOL, curve.Accounts(solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}))
	return nil
}

func (s *Sandbox) addTokenSwap(name string, pool *tokenswap.Pool, a, b string) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		keys := pool.Accounts(solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, s.Mints[pair[0]])
		s.addVenue(name, program.SplTokenSwap, pair[0], pair[1], keys)
	}
}

func (s *Sandbox) addVenue(name string, dex program.Dex, source, destination string, keys []solana.PublicKey) {
	s.Venues = append(s.Venues, &Venue{
		Name:        fmt.Sprintf("%s:%s-%s", name, source, destination),
		Dex:         dex,
		Program:     keys[0],
		Source:      source,
		Destination: destination,
		Accounts:    keys[connector.CommonAccountsLen:],
	})
}
