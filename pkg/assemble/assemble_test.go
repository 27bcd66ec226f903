package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-keiba-exact/pkg/extract"
	"github.com/shouni/go-keiba-exact/pkg/mapping"
	"github.com/shouni/go-keiba-exact/pkg/table"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

func testStore() *mapping.Store {
	return mapping.New(map[mapping.Kind]mapping.Table{
		mapping.KindSex:         {"牡": "0", "牝": "1", "セ": "2"},
		mapping.KindWeather:     {"晴": "0", "曇": "1", "雨": "3"},
		mapping.KindRaceType:    {"芝": "0", "ダ": "1", "障": "2"},
		mapping.KindGroundState: {"良": "0", "稍重": "1", "重": "2"},
		mapping.KindRaceClass:   {"新馬": "0", "未勝利": "1", "G1": "8"},
		mapping.KindAround:      {"右": "0", "左": "1"},
		mapping.KindPlace:       {"東京": "05", "中山": "06"},
	})
}

func resultTable(rows ...[]string) *table.RawTable {
	return &table.RawTable{
		Header: []string{
			types.ColRaceID, "着順", "枠番", "馬番", "性齢", "斤量", "単勝", "人気", "馬体重",
			types.ColHorseID, types.ColJockeyID, types.ColTrainerID, types.ColOwnerID,
		},
		Rows: rows,
	}
}

func TestAssembleResults(t *testing.T) {
	raw := resultTable(
		[]string{"202405030811", "5", "2", "3", "牡4", "57", "12.3", "3", "480(+4)", "2020100001", "05339", "01088", "226800"},
		[]string{"202405030811", "中止", "5", "9", "牝3", "55", "15.2", "7", "452(-2)", "2020100002", "01170", "01155", "001234"},
		[]string{"202405030811", "1", "1", "1", "騸5", "58.5", "", "", "計不", "2020100003", "00666", "01001", "000001"},
		[]string{"202405030811", "2", "8", "16", "セ6", "56", "abc", "1", "計不", "2020100004", "00667", "01002", "000002"},
	)

	rows, dropped := AssembleResults(raw, testStore())

	require.Len(t, rows, 2)
	require.Len(t, dropped, 2)
	assert.Equal(t, types.SkipCoercion, dropped[0].Kind)
	assert.Equal(t, "202405030811/2020100002", dropped[0].ID)
	assert.Equal(t, "202405030811/2020100003", dropped[1].ID)

	assert.Equal(t, types.ResultRow{
		RaceID:     "202405030811",
		HorseID:    "2020100001",
		JockeyID:   "05339",
		TrainerID:  "01088",
		OwnerID:    "226800",
		Rank:       5,
		Wakuban:    types.Ptr(2),
		Umaban:     types.Ptr(3),
		Sex:        types.Ptr("0"),
		Age:        types.Ptr(4),
		Weight:     types.Ptr(480),
		WeightDiff: types.Ptr(4),
		Tansyo:     types.Ptr(12.3),
		Popularity: 3,
		Impost:     types.Ptr(57.0),
	}, rows[0])

	// 数値化できないセルは欠損、行は保持
	assert.Equal(t, 2, rows[1].Rank)
	assert.Nil(t, rows[1].Tansyo)
	assert.Nil(t, rows[1].Weight)
	assert.Nil(t, rows[1].WeightDiff)
	assert.Equal(t, types.Ptr("2"), rows[1].Sex)
}

func TestSplitWeight(t *testing.T) {
	tests := []struct {
		in         string
		weight     *int
		weightDiff *int
	}{
		{"480(+4)", types.Ptr(480), types.Ptr(4)},
		{"480(-2)", types.Ptr(480), types.Ptr(-2)},
		{"502(0)", types.Ptr(502), types.Ptr(0)},
		{"466", types.Ptr(466), nil},
		{"計不", nil, nil},
		{"", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, d := SplitWeight(tt.in)
			assert.Equal(t, tt.weight, w)
			assert.Equal(t, tt.weightDiff, d)
		})
	}
}

func TestAssembleHistory(t *testing.T) {
	raw := &table.RawTable{
		Header: []string{types.ColHorseID, "日付", "天気", "レース名", "頭数", "着順", "距離", "馬場", "着差", "賞金"},
		Rows: [][]string{
			{"2020100001", "2024/04/14", "晴", "皐月賞(G1)", "18", "3", "芝2000", "良", "0.2", "5,400.0"},
			{"2020100001", "2024/1/6", "曇", "3歳未勝利", "16", "1", "ダ1800", "稍重", "-0.3", "550.0"},
			{"2020100001", "2023/12/10", "雨", "2歳新馬", "12", "除", "芝1600", "重", "", ""},
			{"2020100001", "", "晴", "2歳新馬", "12", "4", "芝1600", "良", "", ""},
			{"2020100001", "2023/11/01", "雪", "ハンデ戦", "", "9", "", "不明", "1.5", ""},
		},
	}

	rows, dropped := AssembleHistory(raw, testStore())

	require.Len(t, rows, 3)
	require.Len(t, dropped, 2)

	assert.Equal(t, types.HistoryRow{
		HorseID:     "2020100001",
		Date:        "2024-04-14",
		Rank:        3,
		Prize:       5400,
		RankDiff:    types.Ptr(0.2),
		Weather:     types.Ptr("0"),
		RaceType:    types.Ptr("0"),
		CourseLen:   types.Ptr(2000),
		GroundState: types.Ptr("0"),
		RaceClass:   types.Ptr("8"),
		NHorses:     types.Ptr(18),
	}, rows[0])

	// 負の着差は0、日付は0埋め
	assert.Equal(t, "2024-01-06", rows[1].Date)
	assert.Equal(t, types.Ptr(0.0), rows[1].RankDiff)
	assert.Equal(t, types.Ptr("1"), rows[1].RaceClass)
	assert.Equal(t, types.Ptr("1"), rows[1].RaceType)

	// 賞金なしは0、未知のトークンは欠損
	last := rows[2]
	assert.Equal(t, 0.0, last.Prize)
	assert.Nil(t, last.Weather)
	assert.Nil(t, last.GroundState)
	assert.Nil(t, last.RaceClass)
	assert.Nil(t, last.RaceType)
	assert.Nil(t, last.CourseLen)
	assert.Nil(t, last.NHorses)
}

func TestNormalizeRace(t *testing.T) {
	tok := extract.RaceTokens{
		Date: "2024-05-03", RaceType: "芝", Around: "右", CourseLen: "1800",
		Weather: "晴", GroundState: "良", RaceClass: "3歳未勝利", Place: "東京",
	}

	got := NormalizeRace("202405030811", tok, testStore())

	assert.Equal(t, types.Race{
		RaceID:      "202405030811",
		Date:        "2024-05-03",
		RaceType:    types.Ptr("0"),
		Around:      types.Ptr("0"),
		CourseLen:   types.Ptr(1800),
		Weather:     types.Ptr("0"),
		GroundState: types.Ptr("0"),
		RaceClass:   types.Ptr("1"),
		Place:       types.Ptr("05"),
	}, got)

	t.Run("unknown tokens are missing", func(t *testing.T) {
		got := NormalizeRace("202405030812", extract.RaceTokens{Date: "2024-05-03", Weather: "霧", Place: "ロンシャン"}, testStore())
		assert.Nil(t, got.Weather)
		assert.Nil(t, got.Place)
		assert.Nil(t, got.RaceClass)
		assert.Nil(t, got.CourseLen)
	})
}

func TestAssembleRaces(t *testing.T) {
	raw := &table.RawTable{
		Header: types.RaceInfoColumns,
		Rows: [][]string{
			{"202405030811", "テスト記念", "芝右1800m|天候:晴|ダート:良", "2024年5月3日|3回東京4日目|3歳未勝利"},
			{"202405030812", "日付なし", "芝右1800m", "3回東京4日目"},
		},
	}

	races, skipped := AssembleRaces(raw, testStore())

	require.Len(t, races, 1)
	assert.Equal(t, "2024-05-03", races[0].Date)
	assert.Equal(t, types.Ptr("0"), races[0].GroundState)
	require.Len(t, skipped, 1)
	assert.Equal(t, types.SkipUnsupportedTitle, skipped[0].Kind)
	assert.Equal(t, "202405030812", skipped[0].ID)
}
