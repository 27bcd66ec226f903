package pipeline

import (
	"context"
	"log"

	"github.com/shouni/go-keiba-exact/pkg/store"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

// Export は前処理済みテーブルと特徴量テーブルを SQLite に書き出します。
// 各テーブルはファイル名から拡張子を除いた名前で丸ごと置き換えます。
func (p *Pipeline) Export(ctx context.Context) error {
	return p.stage(StageExport, func(rep *types.StageReport) error {
		db, err := store.Open(p.cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, name := range []string{
			p.cfg.PreprocessedRaceResults,
			p.cfg.PreprocessedHorseResult,
			p.cfg.RaceInfoPreprocessed,
			p.cfg.FeaturesFile,
		} {
			t, err := p.readTable(name)
			if err != nil {
				return err
			}
			tableName := store.TableName(name)
			if len(t.Header) == 0 {
				log.Printf("警告: %s にカラムが無いため書き出しません", name)
				continue
			}
			n, err := db.ImportTable(ctx, tableName, t)
			if err != nil {
				return err
			}
			p.recorder.RowsWritten("sqlite:"+tableName, n)
			rep.Succeeded = append(rep.Succeeded, tableName)
			log.Printf("%s に %s テーブルを %d 行書き出しました", p.cfg.SQLitePath, tableName, n)
		}
		return nil
	})
}
