package coingecko

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"

	"marketfeed/pkg/market/transport"
)

// Replays a recorded OHLC + markets exchange.
// Skips when the cassette is absent and RECORD_CASSETTES != 1.
func TestProvider_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "coingecko_bitcoin.yaml")
	if _, err := os.Stat(cassette); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassette)
		}
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	defer func() { _ = r.Stop() }()

	provider := NewProvider(WithExecutorOptions(transport.WithHTTPClient(&http.Client{Transport: r})))
	ctx := context.Background()

	candles, err := provider.FetchHistory(ctx, "bitcoin", 30)
	assert.NoError(t, err, "FetchHistory should not error")
	assert.NotEmpty(t, candles, "candles should not be empty")

	snap, err := provider.FetchSnapshot(ctx, "bitcoin")
	assert.NoError(t, err, "FetchSnapshot should not error")
	if assert.NotNil(t, snap) {
		assert.Greater(t, snap.CurrentPrice, 0.0, "price should be positive")
	}
}
