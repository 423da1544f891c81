package geckoterminal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/adapters/geckoterminal/dto"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/ohlc"
)

const (
	pepeAddr = "0x6982508145454ce325ddbe47a25d4ec3d2311933"
	wethAddr = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	poolAddr = "0xa43fe16908251ee70ef74718545e4fe6c5ccec9f"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	return NewClient(cfg, server.Client())
}

func pool(network, addr, name, reserve string) string {
	return fmt.Sprintf(`{"id": "%s_%s", "type": "pool", "attributes": {
		"address": "%s", "name": "%s", "base_token_price_usd": "0.0000125", "reserve_in_usd": "%s",
		"volume_usd": {"h24": "2500000.5"}, "price_change_percentage": {"h24": "25"}},
		"relationships": {"network": {"data": {"id": "%s", "type": "network"}}}}`, network, addr, addr, name, reserve, network)
}

// pepeWethPool is a PEPE / WETH pool on eth: PEPE is the base token, WETH the quote token.
func pepeWethPool() string {
	return fmt.Sprintf(`{"id": "eth_%s", "type": "pool", "attributes": {
		"address": "%s", "name": "PEPE / WETH 0.3%%", "base_token_price_usd": "0.0000125",
		"quote_token_price_usd": "3300", "reserve_in_usd": "25000000",
		"volume_usd": {"h24": "2500000.5"}, "price_change_percentage": {"h24": "25"}},
		"relationships": {
			"base_token": {"data": {"id": "eth_%s", "type": "token"}},
			"quote_token": {"data": {"id": "eth_%s", "type": "token"}},
			"network": {"data": {"id": "eth", "type": "network"}}}}`, poolAddr, poolAddr, pepeAddr, wethAddr)
}

// ohlcvBody renders n rows newest first, width seconds apart, ending at end.
func ohlcvBody(n int, end, width int64) string {
	rows := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ts := end - int64(i)*width
		rows = append(rows, fmt.Sprintf("[%d, 1.0, 2.0, 0.5, 1.5, 100.0]", ts))
	}
	return fmt.Sprintf(`{"data": {"id": "x", "type": "ohlcv_request_response", "attributes": {"ohlcv_list": [%s]}}}`, strings.Join(rows, ","))
}

func iv(t *testing.T, name string) entity.Interval {
	t.Helper()
	v, ok := entity.ParseInterval(name)
	require.True(t, ok)
	return v
}

func TestPoolProvider_FetchCandles_WithNetworkHint(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search/pools":
			assert.Equal(t, "PEPE", r.URL.Query().Get("query"))
			assert.Equal(t, "eth", r.URL.Query().Get("network"))
			_, _ = w.Write([]byte(`{"data": [` +
				pool("eth", "0xsmall", "PEPE / USDC", "1000") + `,` +
				pool("eth", poolAddr, "PEPE / WETH 0.3%", "25000000") + `,` +
				pool("eth", "0xother", "WPEPE / WETH", "99000000") + `]}`))
		case r.URL.Path == "/networks/eth/pools/"+poolAddr+"/ohlcv/hour":
			q := r.URL.Query()
			assert.Equal(t, "1", q.Get("aggregate"))
			assert.Equal(t, "usd", q.Get("currency"))
			assert.Equal(t, "base", q.Get("token"))
			assert.Empty(t, q.Get("before_timestamp"))
			_, _ = w.Write([]byte(ohlcvBody(24, 1_736_899_200, 3600)))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	asset := entity.AssetClassification{Class: entity.AssetCrypto, NormalizedSymbol: "PEPE", Network: "eth"}
	got, err := NewPoolProvider(c).FetchCandles(context.Background(), asset, iv(t, "1h"))
	require.NoError(t, err)
	assert.Equal(t, "eth", got.Network)
	assert.Equal(t, poolAddr, got.Pool)
	require.Len(t, got.Candles, 24)
	assert.True(t, ohlc.IsValid(got.Candles))
	assert.Equal(t, int64(1_736_899_200), got.Candles[23].Time)
}

func TestPoolProvider_FetchCandles_NoMatchingPool(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [` + pool("eth", "0x1", "WPEPE / WETH", "10") + `]}`))
	})
	asset := entity.AssetClassification{Class: entity.AssetCrypto, NormalizedSymbol: "PEPE"}
	_, err := NewPoolProvider(c).FetchCandles(context.Background(), asset, iv(t, "1h"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPoolProvider_FetchCandles_PaginatesWithBeforeTimestamp(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		cursors []string
	)
	c := newTestClient(t, Config{PageSize: 100}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search/pools" {
			_, _ = w.Write([]byte(`{"data": [` + pool("base", poolAddr, "BRETT / WETH", "10") + `]}`))
			return
		}
		before := r.URL.Query().Get("before_timestamp")
		mu.Lock()
		cursors = append(cursors, before)
		mu.Unlock()
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		if before == "" {
			_, _ = w.Write([]byte(ohlcvBody(100, 1_736_899_200, 300)))
			return
		}
		// second page is short: provider exhausted
		_, _ = w.Write([]byte(ohlcvBody(40, 1_736_899_200-100*300, 300)))
	})

	asset := entity.AssetClassification{Class: entity.AssetCrypto, NormalizedSymbol: "BRETT"}
	got, err := NewPoolProvider(c).FetchCandles(context.Background(), asset, iv(t, "5m"))
	require.NoError(t, err)
	assert.Equal(t, "base", got.Network)
	assert.Len(t, got.Candles, 140)
	assert.True(t, ohlc.IsValid(got.Candles))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", fmt.Sprint(1_736_899_200 - 99*300)}, cursors)
}

// TestContractProvider_FetchCandles_FoundOnlyOnBase は"base"にのみ存在するコントラクトの検索順序と結果を検証します。
func TestContractProvider_FetchCandles_FoundOnlyOnBase(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/networks/eth/tokens/" + pepeAddr + "/pools":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"status":"404","title":"Not Found"}]}`))
		case "/networks/base/tokens/" + pepeAddr + "/pools":
			_, _ = w.Write([]byte(`{"data": [` + pool("base", poolAddr, "TOKEN / WETH", "5000") + `]}`))
		case "/networks/base/pools/" + poolAddr + "/ohlcv/day":
			_, _ = w.Write([]byte(ohlcvBody(30, 1_736_899_200, 86400)))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	asset := entity.AssetClassification{Class: entity.AssetContract, Chain: entity.ChainEVM, ContractAddress: pepeAddr, NormalizedSymbol: pepeAddr}
	p := NewContractProvider(c)
	got, err := p.FetchCandles(context.Background(), asset, iv(t, "1d"))
	require.NoError(t, err)
	assert.Equal(t, ContractProviderID, p.ID())
	assert.Equal(t, "base", got.Network)
	assert.Len(t, got.Candles, 30)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, paths, 3)
}

func TestContractProvider_Errors(t *testing.T) {
	t.Parallel()

	t.Run("rate limit aborts the network walk", func(t *testing.T) {
		t.Parallel()
		var (
			mu    sync.Mutex
			calls int
		)
		c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			w.WriteHeader(http.StatusTooManyRequests)
		})
		asset := entity.AssetClassification{Class: entity.AssetContract, Chain: entity.ChainEVM, ContractAddress: pepeAddr}
		_, err := NewContractProvider(c).FetchCandles(context.Background(), asset, iv(t, "1h"))
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})

	t.Run("solana contract searches only solana", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasPrefix(r.URL.Path, "/networks/solana/"), r.URL.Path)
			_, _ = w.Write([]byte(`{"data": []}`))
		})
		asset := entity.AssetClassification{Class: entity.AssetContract, Chain: entity.ChainSolana, ContractAddress: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"}
		_, err := NewContractProvider(c).FetchCandles(context.Background(), asset, iv(t, "1h"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestContractProvider_FetchQuote(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [` + pool("eth", poolAddr, "PEPE / WETH", "100") + `]}`))
	})
	asset := entity.AssetClassification{Class: entity.AssetContract, Chain: entity.ChainEVM, ContractAddress: pepeAddr, NormalizedSymbol: pepeAddr}
	got, err := NewContractProvider(c).FetchQuote(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, 0.0000125, got.Price)
	assert.Equal(t, 25.0, got.ChangePercent)
	assert.InDelta(t, 0.00001, got.PreviousClose, 1e-12)
	assert.Equal(t, "eth", got.Network)
	assert.Equal(t, ContractProviderID, got.Source)
}

// TestContractProvider_QuoteSideToken は対象コントラクトがプールのクォート側トークンの場合に
// ベース側の価格を返さないことを検証します。
func TestContractProvider_QuoteSideToken(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		tokens []string
	)
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/networks/eth/tokens/" + wethAddr + "/pools":
			_, _ = w.Write([]byte(`{"data": [` + pepeWethPool() + `]}`))
		case "/networks/eth/pools/" + poolAddr + "/ohlcv/hour":
			mu.Lock()
			tokens = append(tokens, r.URL.Query().Get("token"))
			mu.Unlock()
			_, _ = w.Write([]byte(ohlcvBody(24, 1_736_899_200, 3600)))
		case "/networks/eth/pools/" + poolAddr + "/ohlcv/day":
			q := r.URL.Query()
			mu.Lock()
			tokens = append(tokens, q.Get("token"))
			mu.Unlock()
			assert.Equal(t, "2", q.Get("limit"))
			_, _ = w.Write([]byte(`{"data": {"attributes": {"ohlcv_list": [
				[1736899200, 3000, 3400, 2950, 3300, 900.0],
				[1736812800, 3100, 3150, 2900, 3000, 800.0]]}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	asset := entity.AssetClassification{Class: entity.AssetContract, Chain: entity.ChainEVM, ContractAddress: wethAddr, NormalizedSymbol: wethAddr}
	p := NewContractProvider(c)

	series, err := p.FetchCandles(context.Background(), asset, iv(t, "1h"))
	require.NoError(t, err)
	assert.Equal(t, "eth", series.Network)
	assert.Len(t, series.Candles, 24)

	got, err := p.FetchQuote(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, 3300.0, got.Price)
	assert.Equal(t, 3000.0, got.PreviousClose)
	assert.InDelta(t, 300.0, got.Change, 1e-9)
	assert.InDelta(t, 10.0, got.ChangePercent, 1e-9)
	assert.Equal(t, ContractProviderID, got.Source)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"quote", "quote"}, tokens)
}

func TestContractProvider_BaseSideTokenUsesPoolAttributes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/networks/eth/tokens/" + pepeAddr + "/pools":
			_, _ = w.Write([]byte(`{"data": [` + pepeWethPool() + `]}`))
		case "/networks/eth/pools/" + poolAddr + "/ohlcv/day":
			assert.Equal(t, "base", r.URL.Query().Get("token"))
			_, _ = w.Write([]byte(ohlcvBody(30, 1_736_899_200, 86400)))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	asset := entity.AssetClassification{Class: entity.AssetContract, Chain: entity.ChainEVM, ContractAddress: pepeAddr, NormalizedSymbol: pepeAddr}
	p := NewContractProvider(c)

	_, err := p.FetchCandles(context.Background(), asset, iv(t, "1d"))
	require.NoError(t, err)

	got, err := p.FetchQuote(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, 0.0000125, got.Price)
	assert.Equal(t, 25.0, got.ChangePercent)
}

func TestClient_OHLCV_ResamplesThirtyMinutes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/ohlcv/minute"))
		assert.Equal(t, "15", r.URL.Query().Get("aggregate"))
		// four 15 minute rows on a 30 minute boundary
		_, _ = w.Write([]byte(ohlcvBody(4, 1_736_899_200+45*60, 900)))
	})

	got, err := c.ohlcv(context.Background(), PoolProviderID, "eth", poolAddr, sideBase, iv(t, "30m"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 200.0, got[0].Volume)
}

func TestTrending_FetchMovers(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/polygon_pos/trending_pools", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [` +
			pool("polygon_pos", "0x1", "POL / USDC", "1000000") + `,` +
			`{"id": "polygon_pos_0x2", "attributes": {"name": "BAD / USDC", "base_token_price_usd": "oops"}}` +
			`]}`))
	})

	got, err := NewTrending(c).FetchMovers(context.Background(), entity.HeatmapDEX, "polygon")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entity.MoverItem{
		Symbol: "POL", Name: "POL / USDC", Price: 0.0000125, ChangePercent: 25,
		Volume: 2500000.5, MarketCapOrTVL: 1000000, Source: TrendingSourceID, Sector: "polygon_pos",
	}, got[0])
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PEPE", baseSymbol("pepe / WETH 0.3%"))
	assert.Equal(t, "polygon_pos", networkOf(dtoPool("polygon_pos_0xabc")))
	assert.Equal(t, "eth", networkOf(dtoPool("eth_0xabc")))

	p := dtoPool("eth_" + poolAddr)
	p.Relationships.BaseToken.Data.ID = "eth_" + pepeAddr
	p.Relationships.QuoteToken.Data.ID = "eth_" + wethAddr
	assert.Equal(t, sideBase, tokenSide(p, "eth", pepeAddr))
	assert.Equal(t, sideQuote, tokenSide(p, "eth", strings.ToUpper(wethAddr)))
	assert.Equal(t, sideBase, tokenSide(dtoPool("eth_"+poolAddr), "eth", wethAddr))
}

func dtoPool(id string) dto.Pool {
	return dto.Pool{ID: id}
}
