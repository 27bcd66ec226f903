package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/go-keiba-exact/pkg/retry"
)

// ----------------------------------------------------------------------
// 定数とインターフェース
// ----------------------------------------------------------------------

const (
	// DefaultHTTPTimeout は、デフォルトのHTTPタイムアウトです。
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultUserAgent は netkeiba へのリクエストに付与する User-Agent です。
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.88 Safari/537.36"
)

// Doer は、標準の *http.Client.Do()と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client は httpkit.Client をラップし、User-Agent の付与と設定可能なリトライをカプセル化します。
// httpkit 側のリトライは無効化し、回数は retry.Config で一元管理します。
type Client struct {
	kit         *httpkit.Client
	retryConfig retry.Config
}

// ----------------------------------------------------------------------
// 設定とコンストラクタ
// ----------------------------------------------------------------------

type options struct {
	doer        Doer
	userAgent   string
	retryConfig retry.Config
}

// ClientOption はClientの設定を行うための関数型です。
type ClientOption func(*options)

// WithHTTPClient はカスタムのDoerを設定します。
func WithHTTPClient(doer Doer) ClientOption {
	return func(o *options) {
		o.doer = doer
	}
}

// WithUserAgent は User-Agent を差し替えます。
func WithUserAgent(ua string) ClientOption {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithMaxRetries は最大リトライ回数を設定します。
func WithMaxRetries(max uint64) ClientOption {
	return func(o *options) {
		o.retryConfig = o.retryConfig.WithMaxRetries(max)
	}
}

// WithRetryConfig はリトライ設定を丸ごと差し替えます。
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(o *options) {
		o.retryConfig = cfg
	}
}

// New は新しいClientを初期化します。
func New(timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	// 1. オプションの適用
	o := &options{
		doer:        &http.Client{Timeout: timeout},
		userAgent:   DefaultUserAgent,
		retryConfig: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	// 2. User-Agent を付与する Doer を httpkit.Client に注入
	kit := httpkit.New(
		timeout,
		httpkit.WithHTTPClient(&uaDoer{next: o.doer, userAgent: o.userAgent}),
		httpkit.WithMaxRetries(0),
	)

	return &Client{
		kit:         kit,
		retryConfig: o.retryConfig,
	}
}

// uaDoer はすべてのリクエストに User-Agent を設定します。
type uaDoer struct {
	next      Doer
	userAgent string
}

func (d *uaDoer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", d.userAgent)
	return d.next.Do(req)
}

// ----------------------------------------------------------------------
// httpkit メソッドの利用
// ----------------------------------------------------------------------

// FetchBytes は URL からコンテンツをフェッチし、生のバイト配列として返します。
// 非リトライ対象のエラー (4xx など) は即座に返します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	op := func() error {
		b, err := c.kit.FetchBytes(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	shouldRetry := func(err error) bool { return !IsNonRetryableError(err) }
	if err := retry.Do(ctx, c.retryConfig, fmt.Sprintf("URL(%s)のフェッチ", url), op, shouldRetry); err != nil {
		return nil, err
	}
	return body, nil
}

// IsNonRetryableError は与えられたエラーが非リトライ対象のHTTPエラーであるかを判断します。
// httpkit の同名関数を呼び出します。
func IsNonRetryableError(err error) bool {
	return httpkit.IsNonRetryableError(err)
}
