package market

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"marketfeed/internal/logic/market"
	"marketfeed/internal/svc"
	"marketfeed/internal/types"
)

func MarketHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MarketRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return
		}

		l := market.NewMarketLogic(r.Context(), svcCtx)
		resp, err := l.Market(&req)
		if err != nil {
			writeCollectError(w, r, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
