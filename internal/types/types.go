// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

import "marketfeed/pkg/market"

type MarketRequest struct {
	Coin string `path:"coin"`
	Days int    `form:"days,optional,range=[0:1000]"`
}

type MarketResponse struct {
	market.Envelope
	Stale        bool   `json:"stale"`
	Origin       string `json:"origin"`
	CollectionID string `json:"collection_id,omitempty"`
}

type LatestRequest struct {
	Coin string `path:"coin"`
}

type ProvidersResponse struct {
	Priority []string `json:"priority"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}
