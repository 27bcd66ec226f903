package types

import (
	"fmt"
	"strconv"
)

// Race は1レース分の正規化済みレース情報です。コード値はマッピングファイルの値を文字列化したものです。
type Race struct {
	RaceID      string
	Date        string // YYYY-MM-DD
	RaceType    *string
	Around      *string
	CourseLen   *int
	Weather     *string
	GroundState *string
	RaceClass   *string
	Place       *string
}

// Record は RaceColumns の順に値を並べます。
func (r Race) Record() []string {
	return []string{
		r.RaceID, r.Date, FormatString(r.RaceType), FormatString(r.Around), FormatInt(r.CourseLen),
		FormatString(r.Weather), FormatString(r.GroundState), FormatString(r.RaceClass), FormatString(r.Place),
	}
}

// ParseRace は RaceColumns をキーとするレコードから Race を復元します。
func ParseRace(rec map[string]string) (Race, error) {
	r := Race{
		RaceID:      rec[ColRaceID],
		Date:        rec[ColDate],
		RaceType:    ParseString(rec[ColRaceType]),
		Around:      ParseString(rec[ColAround]),
		Weather:     ParseString(rec[ColWeather]),
		GroundState: ParseString(rec[ColGroundState]),
		RaceClass:   ParseString(rec[ColRaceClass]),
		Place:       ParseString(rec[ColPlace]),
	}
	if r.RaceID == "" {
		return Race{}, fmt.Errorf("race_id が空です")
	}
	r.CourseLen = ParseInt(rec[ColCourseLen])
	return r, nil
}

// ResultRow は1頭の1レースへの出走結果です。rank と popularity は必ず数値を持ちます。
type ResultRow struct {
	RaceID     string
	HorseID    string
	JockeyID   string
	TrainerID  string
	OwnerID    string
	Rank       int
	Wakuban    *int
	Umaban     *int
	Sex        *string
	Age        *int
	Weight     *int
	WeightDiff *int
	Tansyo     *float64
	Popularity int
	Impost     *float64
}

// Record は ResultColumns の順に値を並べます。
func (r ResultRow) Record() []string {
	return []string{
		r.RaceID, r.HorseID, r.JockeyID, r.TrainerID, r.OwnerID,
		strconv.Itoa(r.Rank), FormatInt(r.Wakuban), FormatInt(r.Umaban), FormatString(r.Sex), FormatInt(r.Age),
		FormatInt(r.Weight), FormatInt(r.WeightDiff), FormatFloat(r.Tansyo), strconv.Itoa(r.Popularity), FormatFloat(r.Impost),
	}
}

// ParseResultRow は ResultColumns をキーとするレコードから ResultRow を復元します。
func ParseResultRow(rec map[string]string) (ResultRow, error) {
	rank := ParseInt(rec[ColRank])
	if rank == nil {
		return ResultRow{}, fmt.Errorf("rank が数値ではありません: %q", rec[ColRank])
	}
	pop := ParseInt(rec[ColPopularity])
	if pop == nil {
		return ResultRow{}, fmt.Errorf("popularity が数値ではありません: %q", rec[ColPopularity])
	}
	return ResultRow{
		RaceID:     rec[ColRaceID],
		HorseID:    rec[ColHorseID],
		JockeyID:   rec[ColJockeyID],
		TrainerID:  rec[ColTrainerID],
		OwnerID:    rec[ColOwnerID],
		Rank:       *rank,
		Wakuban:    ParseInt(rec[ColWakuban]),
		Umaban:     ParseInt(rec[ColUmaban]),
		Sex:        ParseString(rec[ColSex]),
		Age:        ParseInt(rec[ColAge]),
		Weight:     ParseInt(rec[ColWeight]),
		WeightDiff: ParseInt(rec[ColWeightDiff]),
		Tansyo:     ParseFloat(rec[ColTansyo]),
		Popularity: *pop,
		Impost:     ParseFloat(rec[ColImpost]),
	}, nil
}

// HistoryRow は馬の過去成績1件です。
type HistoryRow struct {
	HorseID     string
	Date        string // YYYY-MM-DD
	Rank        int
	Prize       float64
	RankDiff    *float64
	Weather     *string
	RaceType    *string
	CourseLen   *int
	GroundState *string
	RaceClass   *string
	NHorses     *int
}

// Record は HistoryColumns の順に値を並べます。
func (h HistoryRow) Record() []string {
	prize := h.Prize
	return []string{
		h.HorseID, h.Date, strconv.Itoa(h.Rank), FormatFloat(&prize), FormatFloat(h.RankDiff),
		FormatString(h.Weather), FormatString(h.RaceType), FormatInt(h.CourseLen),
		FormatString(h.GroundState), FormatString(h.RaceClass), FormatInt(h.NHorses),
	}
}

// ParseHistoryRow は HistoryColumns をキーとするレコードから HistoryRow を復元します。
func ParseHistoryRow(rec map[string]string) (HistoryRow, error) {
	rank := ParseInt(rec[ColRank])
	if rank == nil {
		return HistoryRow{}, fmt.Errorf("rank が数値ではありません: %q", rec[ColRank])
	}
	var prize float64
	if p := ParseFloat(rec[ColPrize]); p != nil {
		prize = *p
	}
	return HistoryRow{
		HorseID:     rec[ColHorseID],
		Date:        rec[ColDate],
		Rank:        *rank,
		Prize:       prize,
		RankDiff:    ParseFloat(rec[ColRankDiff]),
		Weather:     ParseString(rec[ColWeather]),
		RaceType:    ParseString(rec[ColRaceType]),
		CourseLen:   ParseInt(rec[ColCourseLen]),
		GroundState: ParseString(rec[ColGroundState]),
		RaceClass:   ParseString(rec[ColRaceClass]),
		NHorses:     ParseInt(rec[ColNHorses]),
	}, nil
}

// WindowStat は直近nレースの平均着順・平均賞金です。対象レースが無い場合は nil です。
type WindowStat struct {
	N         int
	MeanRank  *float64
	MeanPrize *float64
}

// FeatureRow は特徴量テーブルの1行です。
type FeatureRow struct {
	Result  ResultRow
	Race    Race
	Windows []WindowStat
}

// FeatureColumns は集計ウィンドウを含む特徴量テーブルのカラムを返します。
func FeatureColumns(windows []int) []string {
	cols := append([]string{}, ResultColumns...)
	// race_id は結果側と重複するため除外
	cols = append(cols, RaceColumns[1:]...)
	for _, n := range windows {
		cols = append(cols, WindowColumn(ColRank, n), WindowColumn(ColPrize, n))
	}
	return cols
}

// WindowColumn は集計カラム名 (例: rank_5-races) を返します。
func WindowColumn(base string, n int) string {
	return fmt.Sprintf("%s_%d-races", base, n)
}

// Record は FeatureColumns の順に値を並べます。
func (f FeatureRow) Record() []string {
	rec := f.Result.Record()
	rec = append(rec, f.Race.Record()[1:]...)
	for _, w := range f.Windows {
		rec = append(rec, FormatFloat(w.MeanRank), FormatFloat(w.MeanPrize))
	}
	return rec
}
