// Package metrics は、1回の実行で取得・スキップ・書き出した件数を Prometheus 形式で記録します。
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shouni/go-keiba-exact/pkg/types"
)

const namespace = "keiba"

// ページ取得の区分
const (
	SourceFetched = "fetched"
	SourceCached  = "cached"
)

// Recorder は実行単位のメトリクスを保持します。グローバルのレジストリは使いません。
type Recorder struct {
	registry *prometheus.Registry

	pages    *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.GaugeVec
	lastRun  prometheus.Gauge
}

// New は新しいレジストリ上に Recorder を生成します。
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		pages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Number of HTML pages by kind and whether they were fetched or served from the file cache.",
		}, []string{"kind", "source"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_total",
			Help:      "Number of skipped items by stage and reason.",
		}, []string{"stage", "reason"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Number of rows written by output table.",
		}, []string{"table"}),
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of the last execution of each stage.",
		}, []string{"stage"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the metrics file was written.",
		}),
	}
}

// Registry は内部のレジストリを返します。
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Page はページ1件の取得元を記録します。
func (r *Recorder) Page(kind, source string) {
	r.pages.WithLabelValues(kind, source).Inc()
}

// Skipped はスキップ1件を記録します。
func (r *Recorder) Skipped(stage string, kind types.SkipKind) {
	r.skipped.WithLabelValues(stage, string(kind)).Inc()
}

// Report はステージレポートのスキップ件数をまとめて記録します。
func (r *Recorder) Report(rep *types.StageReport) {
	for _, s := range rep.Skipped {
		r.Skipped(rep.Stage, s.Kind)
	}
}

// RowsWritten は出力テーブルに書いた行数を記録します。
func (r *Recorder) RowsWritten(table string, n int) {
	r.rows.WithLabelValues(table).Add(float64(n))
}

// StageDuration はステージの所要時間を記録します。
func (r *Recorder) StageDuration(stage string, d time.Duration) {
	r.duration.WithLabelValues(stage).Set(d.Seconds())
}

// WriteTextfile は node_exporter の textfile collector 形式でファイルに書き出します。
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("メトリクス出力先の作成に失敗しました: %w", err)
	}
	r.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("メトリクスの書き出しに失敗しました (%s): %w", path, err)
	}
	return nil
}
