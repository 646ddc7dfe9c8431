package market

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/internal/svc"
	"marketfeed/internal/types"
)

type MarketLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMarketLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MarketLogic {
	return &MarketLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *MarketLogic) Market(req *types.MarketRequest) (*types.MarketResponse, error) {
	res, err := l.svcCtx.Collector.Collect(l.ctx, req.Coin, req.Days)
	if err != nil {
		return nil, err
	}
	if res.Stale() {
		l.Infof("serving stale envelope for %s collected at %s", res.Envelope.AssetID, res.Envelope.CollectedAt)
	}
	return &types.MarketResponse{
		Envelope:     *res.Envelope,
		Stale:        res.Stale(),
		Origin:       string(res.Origin),
		CollectionID: res.CollectionID,
	}, nil
}
