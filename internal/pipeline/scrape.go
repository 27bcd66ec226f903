package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-keiba-exact/pkg/scraper"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

// Scrape は race_id の収集からレースページ・馬ページの保存、3つの生テーブルの作成までを行います。
// 保存済みのページは取得しません。
func (p *Pipeline) Scrape(ctx context.Context) error {
	if p.scraper == nil {
		return ErrNoScraper
	}

	raceIDs, err := p.RaceIDs(ctx)
	if err != nil {
		return err
	}

	if err := p.download(ctx, StageDownloadRaces, "race", raceIDs, p.cfg.RaceURLFor, p.cfg.HTMLRaceDir); err != nil {
		return err
	}
	horseIDs, err := p.ExtractRaceResults(ctx)
	if err != nil {
		return err
	}

	if err := p.download(ctx, StageDownloadHorses, "horse", horseIDs, p.cfg.HorseURLFor, p.cfg.HTMLHorseDir); err != nil {
		return err
	}
	if err := p.ExtractHorseResults(ctx); err != nil {
		return err
	}
	return p.ExtractRaceInfo(ctx)
}

func (p *Pipeline) download(ctx context.Context, stage, kind string, ids []string, urlFor func(string) string, dir string) error {
	return p.stage(stage, func(rep *types.StageReport) error {
		rep.AddAll(p.scraper.DownloadPages(ctx, kind, ids, urlFor, dir))
		return ctx.Err()
	})
}

// RaceIDs は対象期間の race_id を返します。一覧ファイルが保存済みであればそれを使い、
// 無ければ開催カレンダーとレース一覧から収集して保存します。
func (p *Pipeline) RaceIDs(ctx context.Context) ([]string, error) {
	path := p.cfg.RaceIDListPath()
	if ids, err := readIDList(path); err == nil {
		log.Printf("保存済みの race_id 一覧を使います: %s (%d 件)", path, len(ids))
		return ids, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if p.scraper == nil {
		return nil, ErrNoScraper
	}
	months, err := scraper.Months(p.cfg.From, p.cfg.To)
	if err != nil {
		return nil, err
	}

	var (
		dates    []string
		ids      []string
		complete = true
	)
	err = p.stage(StageDiscoverDates, func(rep *types.StageReport) error {
		var results []types.ItemResult
		dates, results = p.scraper.ScrapeEventDates(ctx, months, func(m scraper.Month) string {
			return p.cfg.CalendarURLFor(m.Year, m.Month)
		})
		rep.AddAll(results)
		complete = complete && len(rep.Skipped) == 0 && len(results) == len(months)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(StageDiscoverRaceIDs, func(rep *types.StageReport) error {
		var results []types.ItemResult
		ids, results = p.scraper.ScrapeRaceIDs(ctx, dates, p.cfg.RaceListURLFor)
		rep.AddAll(results)
		complete = complete && len(rep.Skipped) == 0 && len(results) == len(dates)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	ids = uniqueIDs(ids)

	// 取りこぼしのある一覧は保存しない (次回の実行で改めて収集する)
	if !complete {
		log.Printf("警告: 収集できなかった開催日があるため、race_id 一覧を保存しません")
		return ids, nil
	}
	if err := writeIDList(path, ids); err != nil {
		return nil, err
	}
	log.Printf("race_id 一覧を保存しました: %s (%d 件)", path, len(ids))
	return ids, nil
}

// readIDList は1行1件のID一覧を読みます。空行は無視します。
func readIDList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s の読み込みに失敗しました: %w", path, err)
	}
	return ids, nil
}

func writeIDList(path string, ids []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリ作成に失敗しました: %w", err)
	}
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("%s の書き込みに失敗しました: %w", path, err)
	}
	return nil
}

func uniqueIDs(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
