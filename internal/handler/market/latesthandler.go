package market

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"marketfeed/internal/logic/market"
	marketpersist "marketfeed/internal/persistence/market"
	"marketfeed/internal/svc"
	"marketfeed/internal/types"
)

func LatestHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LatestRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return
		}

		l := market.NewLatestLogic(r.Context(), svcCtx)
		resp, err := l.Latest(&req)
		switch {
		case errors.Is(err, marketpersist.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "not_found", "no envelope published for "+req.Coin)
		case err != nil:
			writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
		default:
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
