package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	clibase "github.com/shouni/go-cli-base"

	"github.com/shouni/go-keiba-exact/pkg/extract"
	"github.com/shouni/go-keiba-exact/pkg/metrics"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

const (
	// DefaultWait は、各リクエストの前に挟む待機時間の既定値です。
	DefaultWait = 3 * time.Second

	// PageExt は保存するHTMLファイルの拡張子です。
	PageExt = ".bin"
)

// Fetcher は、URLから生のバイト配列を取得する機能のインターフェースです。
// *client.Client と *browser.Renderer がこれを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// SleepFunc は待機処理です。コンテキストがキャンセルされた場合はそのエラーを返します。
type SleepFunc func(ctx context.Context, d time.Duration) error

// Scraper はページを1件ずつ順番に取得し、ファイルに保存します。並列処理は行いません。
type Scraper struct {
	fetcher     Fetcher
	listFetcher Fetcher // レース一覧ページ用 (未指定時は fetcher)
	wait        time.Duration
	sleep       SleepFunc
	recorder    *metrics.Recorder
}

// Option は Scraper の設定を行うための関数型です。
type Option func(*Scraper)

// WithSleep は待機処理を差し替えます。
func WithSleep(fn SleepFunc) Option {
	return func(s *Scraper) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithListFetcher はレース一覧ページの取得に使う Fetcher を設定します。
func WithListFetcher(f Fetcher) Option {
	return func(s *Scraper) {
		if f != nil {
			s.listFetcher = f
		}
	}
}

// WithRecorder はメトリクスの記録先を設定します。
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Scraper) {
		s.recorder = r
	}
}

// New は Scraper を初期化します。
func New(fetcher Fetcher, wait time.Duration, opts ...Option) (*Scraper, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("scraper.New: Fetcher cannot be nil")
	}
	if wait < 0 {
		wait = DefaultWait
	}
	s := &Scraper{
		fetcher: fetcher,
		wait:    wait,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.listFetcher == nil {
		s.listFetcher = fetcher
	}
	return s, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetch は待機してから1件取得します。
func (s *Scraper) fetch(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	if err := s.sleep(ctx, s.wait); err != nil {
		return nil, err
	}
	if clibase.Flags.Verbose {
		log.Printf("取得中: %s", url)
	}
	return f.FetchBytes(ctx, url)
}

// ----------------------------------------------------------------------
// ページの保存
// ----------------------------------------------------------------------

// PagePath は保存先のファイルパスを返します。
func PagePath(dir, id string) string {
	return filepath.Join(dir, id+PageExt)
}

// DownloadPages は ID ごとのページを dir/<id>.bin に保存します。
// 既に保存済みのファイルは取得しません。取得に失敗したIDはスキップとして記録し、次のIDへ進みます。
// コンテキストがキャンセルされた場合は、その時点までの結果を返します。
func (s *Scraper) DownloadPages(ctx context.Context, kind string, ids []string, urlFor func(id string) string, dir string) []types.ItemResult {
	results := make([]types.ItemResult, 0, len(ids))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		for _, id := range ids {
			results = append(results, types.ItemResult{ID: id, Err: types.Skip(types.SkipNetwork, id, err)})
		}
		return results
	}

	for _, id := range ids {
		path := PagePath(dir, id)

		// 1. ファイルが存在する場合は取得しない
		if _, err := os.Stat(path); err == nil {
			s.recordPage(kind, metrics.SourceCached)
			results = append(results, types.ItemResult{ID: id, Path: path})
			continue
		}

		// 2. 待機してから取得
		body, err := s.fetch(ctx, s.fetcher, urlFor(id))
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Printf("%s ページの取得を中断しました: %v", kind, ctxErr)
			return results
		}
		if err != nil {
			skip := types.Skip(types.SkipNetwork, id, err)
			log.Printf("警告: %v", skip)
			results = append(results, types.ItemResult{ID: id, Err: skip})
			continue
		}

		// 3. 解析前に生のバイト列をそのまま保存
		if err := os.WriteFile(path, body, 0o644); err != nil {
			skip := types.Skip(types.SkipNetwork, id, fmt.Errorf("ファイルの保存に失敗しました: %w", err))
			log.Printf("警告: %v", skip)
			results = append(results, types.ItemResult{ID: id, Err: skip})
			continue
		}
		s.recordPage(kind, metrics.SourceFetched)
		results = append(results, types.ItemResult{ID: id, Path: path})
	}
	return results
}

func (s *Scraper) recordPage(kind, source string) {
	if s.recorder != nil {
		s.recorder.Page(kind, source)
	}
}

// ----------------------------------------------------------------------
// 開催日・レースIDの収集
// ----------------------------------------------------------------------

// ScrapeEventDates は各月の開催カレンダーから開催日を集めます。
func (s *Scraper) ScrapeEventDates(ctx context.Context, months []Month, urlFor func(Month) string) ([]string, []types.ItemResult) {
	var (
		dates   []string
		results []types.ItemResult
	)
	for _, m := range months {
		id := m.String()
		body, err := s.fetch(ctx, s.fetcher, urlFor(m))
		if ctx.Err() != nil {
			return dates, results
		}
		found, err := parsePage(body, err, extract.ParseEventDates)
		if err != nil {
			skip := types.Skip(types.SkipNetwork, id, err)
			log.Printf("警告: %v", skip)
			results = append(results, types.ItemResult{ID: id, Err: skip})
			continue
		}
		s.recordPage("calendar", metrics.SourceFetched)
		dates = append(dates, found...)
		results = append(results, types.ItemResult{ID: id})
	}
	return dates, results
}

// ScrapeRaceIDs は各開催日のレース一覧から race_id を集めます。
func (s *Scraper) ScrapeRaceIDs(ctx context.Context, dates []string, urlFor func(date string) string) ([]string, []types.ItemResult) {
	var (
		ids     []string
		results []types.ItemResult
	)
	for _, date := range dates {
		body, err := s.fetch(ctx, s.listFetcher, urlFor(date))
		if ctx.Err() != nil {
			return ids, results
		}
		found, err := parsePage(body, err, extract.ParseRaceIDs)
		if err != nil {
			skip := types.Skip(types.SkipNetwork, date, err)
			log.Printf("警告: %v", skip)
			results = append(results, types.ItemResult{ID: date, Err: skip})
			continue
		}
		s.recordPage("race_list", metrics.SourceFetched)
		ids = append(ids, found...)
		results = append(results, types.ItemResult{ID: date})
	}
	return ids, results
}
