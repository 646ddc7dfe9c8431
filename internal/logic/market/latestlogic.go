package market

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/internal/svc"
	"marketfeed/internal/types"
	marketpkg "marketfeed/pkg/market"
)

type LatestLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLatestLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LatestLogic {
	return &LatestLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Latest returns the last published envelope without triggering a collection.
func (l *LatestLogic) Latest(req *types.LatestRequest) (*marketpkg.Envelope, error) {
	return l.svcCtx.Publisher.Latest(l.ctx, marketpkg.NormalizeAssetID(req.Coin))
}
