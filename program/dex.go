package program

import "fmt"

// Dex names the exchange connector invoked for one fork leg. The numeric
// values are the wire tags and must never be reused.
type Dex uint8

const (
	SplTokenSwap Dex = 0
	StableSwap   Dex = 1
	RaydiumSwap  Dex = 4
	PumpfunSell  Dex = 24
)

var dexNames = map[Dex]string{
	SplTokenSwap: "SplTokenSwap",
	StableSwap:   "StableSwap",
	RaydiumSwap:  "RaydiumSwap",
	PumpfunSell:  "PumpfunSell",
}

func (d Dex) String() string {
	if name, ok := dexNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Dex(%d)", uint8(d))
}

func (d Dex) Valid() bool {
	_, ok := dexNames[d]
	return ok
}

func ParseDex(name string) (Dex, error) {
	for dex, n := range dexNames {
		if n == name {
			return dex, nil
		}
	}
	return 0, fmt.Errorf("unknown dex %q", name)
}
