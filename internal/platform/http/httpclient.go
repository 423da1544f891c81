// Package http provides the outbound HTTP plumbing shared by upstream market data adapters.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は外部API呼び出し用のHTTPクライアントを作成します。
//
// http.DefaultClient にはタイムアウトがないため、アダプターは常にこのクライアントを使います。
// timeout はリクエスト全体の上限で、チェーンの1試行ごとの context タイムアウトとは別に効きます。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
