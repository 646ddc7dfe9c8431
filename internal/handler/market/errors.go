package market

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/rest/httpx"

	"marketfeed/internal/types"
	marketpkg "marketfeed/pkg/market"
	"marketfeed/pkg/market/collector"
)

// writeCollectError maps collection failures to structured responses.
func writeCollectError(w http.ResponseWriter, r *http.Request, err error) {
	var exhausted *marketpkg.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		httpx.WriteJsonCtx(r.Context(), w, http.StatusServiceUnavailable, types.ErrorResponse{
			Error:     "all_sources_exhausted",
			Reason:    exhausted.Reason(),
			Timestamp: exhausted.At.UTC().Format(time.RFC3339),
		})
	case errors.Is(err, collector.ErrEmptyAsset), errors.Is(err, collector.ErrDaysOutOfRange):
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "cancelled", err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, reason string) {
	httpx.WriteJsonCtx(r.Context(), w, status, types.ErrorResponse{
		Error:     code,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
