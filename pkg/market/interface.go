package market

import "context"

//go:generate mockgen -destination=mock/market_mock.go -package=mock -source=interface.go

// Provider is an upstream market data source normalised into the canonical
// schema. Implementations resolve the asset through their own SymbolTable
// first and return *UnsupportedError, without any network access, when the
// table has no entry.
type Provider interface {
	// Name is the provider tag recorded as an envelope's source.
	Name() string
	// FetchHistory returns up to days daily candles, oldest first.
	FetchHistory(ctx context.Context, asset string, days int) ([]Candle, error)
	// FetchSnapshot returns the current market snapshot.
	FetchSnapshot(ctx context.Context, asset string) (*Snapshot, error)
}

// Publisher receives every freshly collected envelope after it has been
// cached. Publish errors never fail a collection.
type Publisher interface {
	Publish(ctx context.Context, env *Envelope) error
}
