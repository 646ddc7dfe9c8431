package market

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"marketfeed/internal/logic/market"
	"marketfeed/internal/svc"
)

func ProvidersHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := market.NewProvidersLogic(r.Context(), svcCtx)
		resp, err := l.Providers()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
