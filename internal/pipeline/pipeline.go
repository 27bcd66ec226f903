// Package pipeline は、取得・抽出・前処理・特徴量作成・書き出しの各ステージを順番に実行します。
// 各ステージは入力ファイルを全件読み、出力ファイルを丸ごと書き直します。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/go-keiba-exact/internal/config"
	"github.com/shouni/go-keiba-exact/pkg/mapping"
	"github.com/shouni/go-keiba-exact/pkg/metrics"
	"github.com/shouni/go-keiba-exact/pkg/scraper"
	"github.com/shouni/go-keiba-exact/pkg/table"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

// ステージ名 (レポートとメトリクスのラベル)
const (
	StageDiscoverDates       = "discover_dates"
	StageDiscoverRaceIDs     = "discover_race_ids"
	StageDownloadRaces       = "download_races"
	StageDownloadHorses      = "download_horses"
	StageExtractRaceResults  = "extract_race_results"
	StageExtractHorseResults = "extract_horse_results"
	StageExtractRaceInfo     = "extract_race_info"
	StagePreprocessResults   = "preprocess_results"
	StagePreprocessHistory   = "preprocess_history"
	StagePreprocessRaces     = "preprocess_races"
	StageFeatures            = "features"
	StageExport              = "export"
)

// ErrNoScraper は、オンラインのステージを Scraper なしで実行しようとしたことを示します。
var ErrNoScraper = errors.New("Scraperが設定されていません")

// Pipeline は1回の実行に必要な依存をまとめて保持します。
type Pipeline struct {
	cfg      *config.Config
	mapping  *mapping.Store
	scraper  *scraper.Scraper
	recorder *metrics.Recorder
	report   *types.Report
}

// Option は Pipeline の設定を行うための関数型です。
type Option func(*Pipeline)

// WithScraper はページ取得に使う Scraper を設定します。オフライン実行では不要です。
func WithScraper(s *scraper.Scraper) Option {
	return func(p *Pipeline) {
		p.scraper = s
	}
}

// WithRecorder はメトリクスの記録先を設定します。
func WithRecorder(r *metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithMapping は読み込み済みのマッピングを使います。未指定時は cfg.MappingDir から読み込みます。
func WithMapping(m *mapping.Store) Option {
	return func(p *Pipeline) {
		p.mapping = m
	}
}

// New は Pipeline を初期化し、実行IDを採番します。
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		report: &types.Report{RunID: uuid.NewString()},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.recorder == nil {
		p.recorder = metrics.New()
	}
	if p.mapping == nil {
		p.mapping = mapping.Load(cfg.MappingDir)
	}
	return p
}

// Report はこれまでに実行したステージの結果です。
func (p *Pipeline) Report() *types.Report { return p.report }

// Recorder はメトリクスの記録先です。
func (p *Pipeline) Recorder() *metrics.Recorder { return p.recorder }

// stage は1ステージを実行し、所要時間とスキップ件数を記録します。
func (p *Pipeline) stage(name string, fn func(rep *types.StageReport) error) error {
	start := time.Now()
	rep := p.report.Stage(name)
	err := fn(rep)

	p.recorder.StageDuration(name, time.Since(start))
	p.recorder.Report(rep)
	log.Printf("[%s] %s: 成功 %d 件, スキップ %d 件", p.report.RunID, name, len(rep.Succeeded), len(rep.Skipped))
	if err != nil {
		return fmt.Errorf("%s に失敗しました: %w", name, err)
	}
	return nil
}

// Finish はメトリクスをファイルに書き出します。MetricsFile が空の場合は何もしません。
func (p *Pipeline) Finish() error {
	if p.cfg.MetricsFile == "" {
		return nil
	}
	return p.recorder.WriteTextfile(p.cfg.MetricsFile)
}

// writeTable はテーブルをTSVで書き出し、書いた行数を記録します。
func (p *Pipeline) writeTable(name string, header []string, rows [][]string) error {
	path := p.cfg.SavePath(name)
	if err := table.WriteFile(path, header, rows); err != nil {
		return err
	}
	p.recorder.RowsWritten(name, len(rows))
	log.Printf("%s に %d 行書き出しました", path, len(rows))
	return nil
}

// readTable は SaveDir 配下のTSVを読みます。空のファイルは0行のテーブルとして扱います。
func (p *Pipeline) readTable(name string) (*table.RawTable, error) {
	path := p.cfg.SavePath(name)
	t, err := table.ReadFile(path)
	if errors.Is(err, table.ErrEmptyFile) {
		log.Printf("警告: %s は空です", path)
		return &table.RawTable{}, nil
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("入力ファイル %s がありません。前段のステージを先に実行してください: %w", path, err)
		}
		return nil, err
	}
	return t, nil
}

// Run は取得 (offline の場合は保存済みHTMLからの抽出)・前処理・特徴量作成を続けて実行します。
func (p *Pipeline) Run(ctx context.Context, offline bool) error {
	if offline {
		if err := p.Extract(ctx); err != nil {
			return err
		}
	} else if err := p.Scrape(ctx); err != nil {
		return err
	}
	if err := p.Preprocess(ctx); err != nil {
		return err
	}
	return p.Features(ctx)
}
