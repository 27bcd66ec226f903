// Package browser は、JavaScript で描画されるレース一覧ページをヘッドレスChromeで取得します。
package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// DefaultNavigateTimeout は1ページの遷移と読み込みを待つ上限です。
const DefaultNavigateTimeout = 30 * time.Second

// Renderer は scraper.Fetcher を満たし、描画後のDOMをHTMLとして返します。
// Chrome は最初の取得時に起動し、Close で終了します。
type Renderer struct {
	remoteURL string
	timeout   time.Duration

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Option は Renderer の設定を行うための関数型です。
type Option func(*Renderer)

// WithRemoteURL は起動済みの Chrome (DevTools の WebSocket URL) に接続します。
func WithRemoteURL(u string) Option {
	return func(r *Renderer) {
		r.remoteURL = u
	}
}

// WithTimeout は1ページあたりのタイムアウトを設定します。
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New は Renderer を生成します。この時点では Chrome を起動しません。
func New(opts ...Option) *Renderer {
	r := &Renderer{timeout: DefaultNavigateTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	wsURL := r.remoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("Chromeの起動に失敗しました: %w", err)
		}
		wsURL = u
		r.lnch = l
		log.Printf("ヘッドレスChromeを起動しました (%s)", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("Chromeへの接続に失敗しました: %w", err)
	}
	r.browser = b
	return b, nil
}

// FetchBytes は URL を開き、読み込み完了後のDOMをHTMLとして返します。
func (r *Renderer) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("タブの作成に失敗しました: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p := page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("%s への遷移に失敗しました: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%s の読み込みを待てませんでした: %w", url, err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("DOMの取得に失敗しました: %w", err)
	}
	return []byte(html), nil
}

// Close はブラウザを終了します。起動していない場合は何もしません。
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Kill()
		r.lnch = nil
	}
	return err
}
