package connector

import (
	"sort"

	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
)

// Registry maps connector identities to implementations. Adding a venue is a
// Register call; the distributor never changes.
type Registry struct {
	connectors map[program.Dex]Connector
}

func NewRegistry(connectors ...Connector) (*Registry, error) {
	r := &Registry{connectors: make(map[program.Dex]Connector)}
	for _, c := range connectors {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(c Connector) error {
	if _, ok := r.connectors[c.Dex()]; ok {
		return errcode.ErrDuplicateConnector.Wrap(c.Dex().String())
	}
	r.connectors[c.Dex()] = c
	return nil
}

func (r *Registry) Get(dex program.Dex) (Connector, error) {
	c, ok := r.connectors[dex]
	if !ok {
		return nil, errcode.ErrUnknownDex.Wrapf("no connector for %s", dex)
	}
	return c, nil
}

func (r *Registry) Dexes() []program.Dex {
	dexes := make([]program.Dex, 0, len(r.connectors))
	for dex := range r.connectors {
		dexes = append(dexes, dex)
	}
	sort.Slice(dexes, func(i, j int) bool { return dexes[i] < dexes[j] })
	return dexes
}
