package cmd

import (
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "レースIDを収集し、レース・馬のページを保存して生テーブルを作成します",
	Long: `開催カレンダーとレース一覧から対象期間の race_id を集め (保存済みの一覧があればそれを使い)、
レースページと馬ページを1件ずつ保存します。保存済みのページは取得しません。
保存したHTMLから race_results.csv / horse_results.csv / race_info.csv を作成します。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		p, closer, err := newPipeline(true)
		if err != nil {
			return err
		}
		defer closer()
		return finish(p, p.Scrape(ctx))
	},
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "生テーブルを前処理し、コード化された型付きテーブルを作成します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		p, closer, err := newPipeline(false)
		if err != nil {
			return err
		}
		defer closer()
		return finish(p, p.Preprocess(ctx))
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "前処理済みテーブルから直近nレースの集計を含む features.csv を作成します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		p, closer, err := newPipeline(false)
		if err != nil {
			return err
		}
		defer closer()
		return finish(p, p.Features(ctx))
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "前処理済みテーブルと特徴量テーブルを SQLite に書き出します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		p, closer, err := newPipeline(false)
		if err != nil {
			return err
		}
		defer closer()
		return finish(p, p.Export(ctx))
	},
}

var offline bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "scrape・preprocess・features を続けて実行します",
	Long:  `--offline を指定すると一切通信せず、保存済みのHTMLだけから生テーブルを作り直します。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		p, closer, err := newPipeline(!offline)
		if err != nil {
			return err
		}
		defer closer()
		return finish(p, p.Run(ctx, offline))
	},
}

func init() {
	runCmd.Flags().BoolVar(&offline, "offline", false, "通信せず、保存済みのHTMLのみを使う")
}
