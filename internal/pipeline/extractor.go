package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/go-keiba-exact/pkg/extract"
	"github.com/shouni/go-keiba-exact/pkg/scraper"
	"github.com/shouni/go-keiba-exact/pkg/table"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

// page は保存済みHTMLファイル1件です。
type page struct {
	ID   string
	Path string
}

// listPages は dir 内の保存済みページをファイル名の辞書順で返します。
func listPages(dir string) ([]page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("HTMLディレクトリ %s を読めませんでした: %w", dir, err)
	}
	var pages []page
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, scraper.PageExt) {
			continue
		}
		pages = append(pages, page{ID: strings.TrimSuffix(name, scraper.PageExt), Path: filepath.Join(dir, name)})
	}
	return pages, nil
}

// eachDocument は dir 内のページを順に解析して fn に渡します。
// 解析できなかったページや fn がエラーを返したページはスキップとして記録します。
func eachDocument(ctx context.Context, dir string, rep *types.StageReport, fn func(id string, doc *goquery.Document) error) error {
	pages, err := listPages(dir)
	if err != nil {
		return err
	}
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(pg.Path)
		if err != nil {
			return fmt.Errorf("%s を読めませんでした: %w", pg.Path, err)
		}
		doc, err := extract.NewDocument(data)
		if err == nil {
			err = fn(pg.ID, doc)
		}
		if err != nil {
			skip := types.Skip(extract.SkipKindOf(err), pg.ID, err)
			log.Printf("警告: %v", skip)
			rep.Add(types.ItemResult{ID: pg.ID, Path: pg.Path, Err: skip})
			continue
		}
		rep.Add(types.ItemResult{ID: pg.ID, Path: pg.Path})
	}
	return nil
}

// ExtractRaceResults は保存済みのレースページから結果テーブルを集め、race_results.csv に書き出します。
// 戻り値は出走馬の horse_id (重複なし、出現順) です。
func (p *Pipeline) ExtractRaceResults(ctx context.Context) ([]string, error) {
	var (
		all      table.RawTable
		horseIDs []string
	)
	seen := make(map[string]bool)

	err := p.stage(StageExtractRaceResults, func(rep *types.StageReport) error {
		err := eachDocument(ctx, p.cfg.HTMLRaceDir, rep, func(raceID string, doc *goquery.Document) error {
			t, err := extract.ExtractRaceResults(doc)
			if err != nil {
				return err
			}
			all.Append(t.WithLeadingColumn(types.ColRaceID, raceID))

			col := t.Index(types.ColHorseID)
			for _, row := range t.Rows {
				if id := row[col]; !seen[id] {
					seen[id] = true
					horseIDs = append(horseIDs, id)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		return p.writeTable(p.cfg.RaceResultsFile, all.Header, all.Rows)
	})
	return horseIDs, err
}

// ExtractHorseResults は保存済みの馬ページから競走成績を集め、horse_results.csv に書き出します。
func (p *Pipeline) ExtractHorseResults(ctx context.Context) error {
	var all table.RawTable
	return p.stage(StageExtractHorseResults, func(rep *types.StageReport) error {
		err := eachDocument(ctx, p.cfg.HTMLHorseDir, rep, func(horseID string, doc *goquery.Document) error {
			t, err := extract.ExtractHorseResults(doc)
			if err != nil {
				return err
			}
			all.Append(t.WithLeadingColumn(types.ColHorseID, horseID))
			return nil
		})
		if err != nil {
			return err
		}
		return p.writeTable(p.cfg.HorseResultsFile, all.Header, all.Rows)
	})
}

// ExtractRaceInfo は保存済みのレースページからレース情報を取り出し、race_info.csv に書き出します。
func (p *Pipeline) ExtractRaceInfo(ctx context.Context) error {
	var rows [][]string
	return p.stage(StageExtractRaceInfo, func(rep *types.StageReport) error {
		err := eachDocument(ctx, p.cfg.HTMLRaceDir, rep, func(raceID string, doc *goquery.Document) error {
			info, err := extract.ExtractRaceInfo(doc)
			if err != nil {
				return err
			}
			rows = append(rows, info.Record(raceID))
			return nil
		})
		if err != nil {
			return err
		}
		return p.writeTable(p.cfg.RaceInfoFile, types.RaceInfoColumns, rows)
	})
}

// Extract は保存済みのHTMLだけを使って3つの生テーブルを作ります。ネットワークには接続しません。
func (p *Pipeline) Extract(ctx context.Context) error {
	if _, err := p.ExtractRaceResults(ctx); err != nil {
		return err
	}
	if err := p.ExtractHorseResults(ctx); err != nil {
		return err
	}
	return p.ExtractRaceInfo(ctx)
}
