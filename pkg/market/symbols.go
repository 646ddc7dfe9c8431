package market

import "strings"

// SymbolTable maps canonical asset ids to a provider's native symbols.
// Lookups are pure: they never touch the network.
type SymbolTable struct {
	entries     map[string]string
	passthrough bool
}

// NewSymbolTable copies entries into an immutable table. Keys are normalised.
func NewSymbolTable(entries map[string]string) SymbolTable {
	m := make(map[string]string, len(entries))
	for k, v := range entries {
		key := NormalizeAssetID(k)
		v = strings.TrimSpace(v)
		if key == "" || v == "" {
			continue
		}
		m[key] = v
	}
	return SymbolTable{entries: m}
}

// PassthroughTable resolves every non-empty asset id to itself, for providers
// whose namespace is the canonical one.
func PassthroughTable() SymbolTable {
	return SymbolTable{entries: map[string]string{}, passthrough: true}
}

// Lookup resolves an asset id to the native symbol.
func (t SymbolTable) Lookup(asset string) (string, bool) {
	key := NormalizeAssetID(asset)
	if key == "" {
		return "", false
	}
	if v, ok := t.entries[key]; ok {
		return v, true
	}
	if t.passthrough {
		return key, true
	}
	return "", false
}

// Len reports the number of explicit entries.
func (t SymbolTable) Len() int { return len(t.entries) }

// Passthrough reports whether unknown ids resolve to themselves.
func (t SymbolTable) Passthrough() bool { return t.passthrough }

// Merge returns a new table holding t's entries overlaid with overrides.
func (t SymbolTable) Merge(overrides map[string]string) SymbolTable {
	if len(overrides) == 0 {
		return t
	}
	merged := make(map[string]string, len(t.entries)+len(overrides))
	for k, v := range t.entries {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	out := NewSymbolTable(merged)
	out.passthrough = t.passthrough
	return out
}

// DefaultSymbols returns the built-in table for a provider type. Unknown
// types get an empty table.
func DefaultSymbols(providerType string) SymbolTable {
	switch strings.ToLower(strings.TrimSpace(providerType)) {
	case "coingecko":
		return PassthroughTable()
	case "binance":
		return NewSymbolTable(binanceSymbols)
	case "coincap":
		return NewSymbolTable(coincapSymbols)
	case "kraken":
		return NewSymbolTable(krakenSymbols)
	default:
		return NewSymbolTable(nil)
	}
}

var binanceSymbols = map[string]string{
	"bitcoin": "BTCUSDT", "ethereum": "ETHUSDT", "binancecoin": "BNBUSDT",
	"ripple": "XRPUSDT", "cardano": "ADAUSDT", "solana": "SOLUSDT",
	"dogecoin": "DOGEUSDT", "tron": "TRXUSDT", "polkadot": "DOTUSDT",
	"polygon": "MATICUSDT", "litecoin": "LTCUSDT", "shiba-inu": "SHIBUSDT",
	"avalanche-2": "AVAXUSDT", "chainlink": "LINKUSDT", "uniswap": "UNIUSDT",
	"cosmos": "ATOMUSDT", "stellar": "XLMUSDT", "monero": "XMRUSDT",
	"ethereum-classic": "ETCUSDT", "bitcoin-cash": "BCHUSDT", "algorand": "ALGOUSDT",
	"vechain": "VETUSDT", "filecoin": "FILUSDT", "aptos": "APTUSDT",
	"near": "NEARUSDT", "internet-computer": "ICPUSDT", "hedera-hashgraph": "HBARUSDT",
	"optimism": "OPUSDT", "arbitrum": "ARBUSDT", "zcash": "ZECUSDT",
	"aave": "AAVEUSDT", "maker": "MKRUSDT", "the-graph": "GRTUSDT",
	"fantom": "FTMUSDT", "elrond-erd-2": "EGLDUSDT", "tezos": "XTZUSDT",
	"theta-token": "THETAUSDT", "axie-infinity": "AXSUSDT", "eos": "EOSUSDT",
	"compound": "COMPUSDT", "decentraland": "MANAUSDT", "the-sandbox": "SANDUSDT",
	"crypto-com-chain": "CROUSDT",
}

var coincapSymbols = map[string]string{
	"bitcoin": "bitcoin", "ethereum": "ethereum", "tether": "tether",
	"binancecoin": "binance-coin", "solana": "solana", "ripple": "xrp",
	"usd-coin": "usd-coin", "cardano": "cardano", "dogecoin": "dogecoin",
	"tron": "tron", "avalanche-2": "avalanche", "chainlink": "chainlink",
	"shiba-inu": "shiba-inu", "polkadot": "polkadot", "bitcoin-cash": "bitcoin-cash",
	"uniswap": "uniswap", "litecoin": "litecoin", "near": "near-protocol",
	"leo-token": "leo-token", "polygon": "polygon", "dai": "multi-collateral-dai",
	"wrapped-bitcoin": "wrapped-bitcoin", "internet-computer": "internet-computer",
	"kaspa": "kaspa", "ethereum-classic": "ethereum-classic", "aptos": "aptos",
	"monero": "monero", "stellar": "stellar", "okb": "okb",
	"render-token": "render-token", "immutable-x": "immutable-x", "cosmos": "cosmos",
	"arbitrum": "arbitrum", "filecoin": "filecoin", "mantle": "mantle",
	"first-digital-usd": "first-digital-usd", "crypto-com-chain": "crypto-com-coin",
	"hedera-hashgraph": "hedera-hashgraph", "vechain": "vechain", "blockstack": "blockstack",
	"optimism": "optimism", "injective-protocol": "injective", "maker": "maker",
	"aave": "aave", "algorand": "algorand", "bittorrent": "bittorrent",
	"theta-token": "theta-network", "sui": "sui", "the-graph": "the-graph",
	"quant-network": "quant", "fantom": "fantom", "sei-network": "sei",
	"celestia": "celestia", "eos": "eos", "tezos": "tezos",
	"flow": "flow", "flare-networks": "flare", "kucoin-shares": "kucoin-token",
	"true-usd": "trueusd", "gatetoken": "gatechain-token", "thorchain": "thorchain",
	"beam": "beam", "bitget-token": "bitget-token", "neo": "neo",
	"iota": "iota", "axie-infinity": "axie-infinity", "the-sandbox": "the-sandbox",
	"kaia": "kaia", "zcash": "zcash", "decentraland": "decentraland",
	"elrond-erd-2": "elrond", "compound": "compound-coin", "ecash": "ecash",
	"pyth-network": "pyth-network", "wemix": "wemix", "arweave": "arweave",
	"jasmycoin": "jasmy", "pancakeswap-token": "pancakeswap", "helium": "helium",
	"curve-dao-token": "curve-dao-token", "usdd": "usdd", "ondo-finance": "ondo",
	"terra-luna": "terra-luna", "conflux-token": "conflux-network", "gala": "gala",
	"pendle": "pendle", "fetch-ai": "fetch", "raydium": "raydium",
	"synthetix-network-token": "synthetix-network-token", "nexo": "nexo",
	"ethereum-name-service": "ethereum-name-service", "blur": "blur", "zilliqa": "zilliqa",
	"lido-dao": "lido-dao", "pax-dollar": "paxos-standard", "jito": "jito",
	"rocket-pool": "rocket-pool", "coreum": "coreum", "dydx-chain": "dydx",
	"reserve-rights-token": "reserve-rights-token", "jupiter": "jupiter",
	"trust-wallet-token": "trust-wallet-token",
}

var krakenSymbols = map[string]string{
	"bitcoin": "XXBTZUSD", "ethereum": "XETHZUSD", "tether": "USDTZUSD",
	"ripple": "XXRPZUSD", "cardano": "ADAUSD", "solana": "SOLUSD",
	"dogecoin": "XDGUSD", "polkadot": "DOTUSD", "polygon": "MATICUSD",
	"litecoin": "XLTCZUSD", "avalanche-2": "AVAXUSD", "chainlink": "LINKUSD",
	"uniswap": "UNIUSD", "cosmos": "ATOMUSD", "stellar": "XXLMZUSD",
	"ethereum-classic": "XETCZUSD", "algorand": "ALGOUSD", "filecoin": "FILUSD",
	"near": "NEARUSD", "optimism": "OPUSD", "arbitrum": "ARBUSD",
	"zcash": "ZECUSD", "aave": "AAVEUSD", "maker": "MKRUSD",
	"the-graph": "GRTUSD", "tezos": "XTZUSD", "eos": "EOSUSD",
	"compound": "COMPUSD", "quant-network": "QNTUSD", "injective-protocol": "INJUSD",
	"render-token": "RNDRXUSD",
}
