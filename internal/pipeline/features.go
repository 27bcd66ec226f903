package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-keiba-exact/pkg/feature"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

// Features は前処理済みの3テーブルから features.csv を作ります。
func (p *Pipeline) Features(ctx context.Context) error {
	return p.stage(StageFeatures, func(rep *types.StageReport) error {
		results, err := readRows(p, p.cfg.PreprocessedRaceResults, rep, types.ParseResultRow)
		if err != nil {
			return err
		}
		races, err := readRows(p, p.cfg.RaceInfoPreprocessed, rep, types.ParseRace)
		if err != nil {
			return err
		}
		history, err := readRows(p, p.cfg.PreprocessedHorseResult, rep, types.ParseHistoryRow)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rows := feature.Build(results, races, history, p.cfg.Windows)
		records := make([][]string, 0, len(rows))
		for _, f := range rows {
			rep.Succeeded = append(rep.Succeeded, f.Result.RaceID+"/"+f.Result.HorseID)
			records = append(records, f.Record())
		}
		return p.writeTable(p.cfg.FeaturesFile, types.FeatureColumns(p.cfg.Windows), records)
	})
}

// readRows は前処理済みTSVを型付きの行に戻します。戻せない行は coercion のスキップとして記録します。
func readRows[T any](p *Pipeline, name string, rep *types.StageReport, parse func(map[string]string) (T, error)) ([]T, error) {
	raw, err := p.readTable(name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw.Rows))
	for i, rec := range raw.Records() {
		v, err := parse(rec)
		if err != nil {
			id := rowID(name, i, rec)
			rep.Add(types.ItemResult{ID: id, Err: types.Skip(types.SkipCoercion, id, err)})
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// rowID はスキップの記録に使う行の識別子です。
func rowID(name string, i int, rec map[string]string) string {
	var keys []string
	for _, col := range []string{types.ColRaceID, types.ColHorseID, types.ColDate} {
		if v := rec[col]; v != "" {
			keys = append(keys, v)
		}
	}
	if len(keys) == 0 {
		return fmt.Sprintf("%s:%d", name, i+2)
	}
	return strings.Join(keys, "/")
}
