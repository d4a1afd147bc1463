package aggregator

// Observer receives every committed swap. It is never called for a call that
// rolled back.
type Observer interface {
	OnSwap(result *Result)
}

type ObserverFunc func(result *Result)

func (f ObserverFunc) OnSwap(result *Result) {
	f(result)
}
