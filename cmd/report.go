package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/shouni/go-keiba-exact/pkg/types"
)

// printReport はステージごとの成功・スキップ件数と、スキップ理由の内訳を表で出力します。
func printReport(w io.Writer, rep *types.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("実行ID %s", rep.RunID))
	t.AppendHeader(table.Row{"ステージ", "成功", "スキップ", "内訳"})

	for _, s := range rep.Stages {
		t.AppendRow(table.Row{s.Stage, len(s.Succeeded), len(s.Skipped), skipBreakdown(s.Skipped)})
	}
	t.AppendFooter(table.Row{"", "", rep.SkipCount(), ""})
	t.Render()
}

// skipBreakdown は "network=2 coercion=1" の形式で理由別の件数を返します。
func skipBreakdown(skipped []*types.SkipError) string {
	counts := make(map[types.SkipKind]int)
	for _, s := range skipped {
		counts[s.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[types.SkipKind(k)])
	}
	return strings.Join(parts, " ")
}
