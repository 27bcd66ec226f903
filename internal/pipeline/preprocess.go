package pipeline

import (
	"context"
	"log"

	"github.com/shouni/go-keiba-exact/pkg/assemble"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

// Preprocess は3つの生テーブルを前処理し、型付きのテーブルとして書き出します。
func (p *Pipeline) Preprocess(ctx context.Context) error {
	if err := p.PreprocessResults(ctx); err != nil {
		return err
	}
	if err := p.PreprocessHistory(ctx); err != nil {
		return err
	}
	return p.PreprocessRaces(ctx)
}

// PreprocessResults は race_results.csv を preprocessed_race_results.csv に変換します。
func (p *Pipeline) PreprocessResults(ctx context.Context) error {
	return p.stage(StagePreprocessResults, func(rep *types.StageReport) error {
		raw, err := p.readTable(p.cfg.RaceResultsFile)
		if err != nil {
			return err
		}
		rows, dropped := assemble.AssembleResults(raw, p.mapping)
		recordDropped(rep, dropped)

		records := make([][]string, 0, len(rows))
		for _, r := range rows {
			rep.Succeeded = append(rep.Succeeded, r.RaceID+"/"+r.HorseID)
			records = append(records, r.Record())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.writeTable(p.cfg.PreprocessedRaceResults, types.ResultColumns, records)
	})
}

// PreprocessHistory は horse_results.csv を preprocessed_horse_results.csv に変換します。
func (p *Pipeline) PreprocessHistory(ctx context.Context) error {
	return p.stage(StagePreprocessHistory, func(rep *types.StageReport) error {
		raw, err := p.readTable(p.cfg.HorseResultsFile)
		if err != nil {
			return err
		}
		rows, dropped := assemble.AssembleHistory(raw, p.mapping)
		recordDropped(rep, dropped)

		records := make([][]string, 0, len(rows))
		for _, h := range rows {
			rep.Succeeded = append(rep.Succeeded, h.HorseID+"/"+h.Date)
			records = append(records, h.Record())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.writeTable(p.cfg.PreprocessedHorseResult, types.HistoryColumns, records)
	})
}

// PreprocessRaces は race_info.csv を race_info_preprocessed.csv に変換します。
func (p *Pipeline) PreprocessRaces(ctx context.Context) error {
	return p.stage(StagePreprocessRaces, func(rep *types.StageReport) error {
		raw, err := p.readTable(p.cfg.RaceInfoFile)
		if err != nil {
			return err
		}
		races, skipped := assemble.AssembleRaces(raw, p.mapping)
		recordDropped(rep, skipped)

		records := make([][]string, 0, len(races))
		for _, r := range races {
			rep.Succeeded = append(rep.Succeeded, r.RaceID)
			records = append(records, r.Record())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.writeTable(p.cfg.RaceInfoPreprocessed, types.RaceColumns, records)
	})
}

func recordDropped(rep *types.StageReport, dropped []*types.SkipError) {
	for _, s := range dropped {
		log.Printf("警告: %v", s)
		rep.Add(types.ItemResult{ID: s.ID, Err: s})
	}
}
