package feature

import (
	"sort"

	"github.com/shouni/go-keiba-exact/pkg/types"
)

// DefaultWindows は集計する直近レース数の既定値です。
var DefaultWindows = []int{3, 5, 10, 1000}

// Entry は学習母集団の1行 (あるレースに出走した1頭) です。
type Entry struct {
	RaceID  string
	HorseID string
	Date    string // レース日 (YYYY-MM-DD)
}

// Population はレース結果とレース情報を race_id で内部結合し、結果の並び順で母集団を作ります。
// レース情報が無い結果は日付が分からないため含めません。
func Population(results []types.ResultRow, races []types.Race) []Entry {
	dates := make(map[string]string, len(races))
	for _, r := range races {
		dates[r.RaceID] = r.Date
	}
	population := make([]Entry, 0, len(results))
	for _, r := range results {
		date, ok := dates[r.RaceID]
		if !ok {
			continue
		}
		population = append(population, Entry{RaceID: r.RaceID, HorseID: r.HorseID, Date: date})
	}
	return population
}

// Aggregate は母集団の各行について、レース日より前の成績を新しい順に n 件ずつ取り、着順と賞金の平均を求めます。
// 戻り値は population と同じ並びで、各要素は windows と同じ並びの集計値です。
// 対象となる成績が1件も無いウィンドウの値は欠損です。
func Aggregate(population []Entry, history []types.HistoryRow, windows []int) [][]types.WindowStat {
	byHorse := indexHistory(history)

	out := make([][]types.WindowStat, len(population))
	for i, e := range population {
		prior := priorTo(byHorse[e.HorseID], e.Date)
		stats := make([]types.WindowStat, len(windows))
		for j, n := range windows {
			stats[j] = mean(prior, n)
		}
		out[i] = stats
	}
	return out
}

// indexHistory は成績を馬ごとに日付の降順で並べます。同じ日付は入力順を保ちます。
func indexHistory(history []types.HistoryRow) map[string][]types.HistoryRow {
	byHorse := make(map[string][]types.HistoryRow)
	for _, h := range history {
		byHorse[h.HorseID] = append(byHorse[h.HorseID], h)
	}
	for _, rows := range byHorse {
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].Date > rows[b].Date })
	}
	return byHorse
}

// priorTo は降順の成績のうち、date より厳密に前のものを返します。
func priorTo(sorted []types.HistoryRow, date string) []types.HistoryRow {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].Date < date })
	return sorted[i:]
}

func mean(rows []types.HistoryRow, n int) types.WindowStat {
	stat := types.WindowStat{N: n}
	if n < len(rows) {
		rows = rows[:n]
	}
	if len(rows) == 0 || n <= 0 {
		return stat
	}
	var rankSum, prizeSum float64
	for _, h := range rows {
		rankSum += float64(h.Rank)
		prizeSum += h.Prize
	}
	k := float64(len(rows))
	stat.MeanRank = types.Ptr(rankSum / k)
	stat.MeanPrize = types.Ptr(prizeSum / k)
	return stat
}

// Build は母集団にレース結果・レース情報・全ウィンドウの集計値を結合した特徴量を作ります。
// 集計値側は左外部結合のため、成績の無い馬の行も残ります。
func Build(results []types.ResultRow, races []types.Race, history []types.HistoryRow, windows []int) []types.FeatureRow {
	raceByID := make(map[string]types.Race, len(races))
	for _, r := range races {
		raceByID[r.RaceID] = r
	}

	population := Population(results, races)
	stats := Aggregate(population, history, windows)

	rows := make([]types.FeatureRow, 0, len(population))
	i := 0
	for _, r := range results {
		race, ok := raceByID[r.RaceID]
		if !ok {
			continue
		}
		rows = append(rows, types.FeatureRow{Result: r, Race: race, Windows: stats[i]})
		i++
	}
	return rows
}
