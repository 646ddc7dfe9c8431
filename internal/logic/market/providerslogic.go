package market

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/internal/svc"
	"marketfeed/internal/types"
)

type ProvidersLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewProvidersLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ProvidersLogic {
	return &ProvidersLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ProvidersLogic) Providers() (*types.ProvidersResponse, error) {
	return &types.ProvidersResponse{Priority: l.svcCtx.Collector.Providers()}, nil
}
