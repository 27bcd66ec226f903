package assemble

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shouni/go-keiba-exact/pkg/extract"
	"github.com/shouni/go-keiba-exact/pkg/mapping"
	"github.com/shouni/go-keiba-exact/pkg/table"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

// 生テーブル (netkeiba の表) のカラム名
const (
	srcRank       = "着順"
	srcWakuban    = "枠番"
	srcUmaban     = "馬番"
	srcSexAge     = "性齢"
	srcImpost     = "斤量"
	srcTansyo     = "単勝"
	srcPopularity = "人気"
	srcWeight     = "馬体重"

	srcDate      = "日付"
	srcWeather   = "天気"
	srcDistance  = "距離"
	srcGround    = "馬場"
	srcRankDiff  = "着差"
	srcPrize     = "賞金"
	srcRaceName  = "レース名"
	srcNumHorses = "頭数"
)

var (
	weightPattern     = regexp.MustCompile(`^(\d+)`)
	weightDiffPattern = regexp.MustCompile(`\(([+-]?\d+)\)`)
	distancePattern   = regexp.MustCompile(`(\d+)`)
	historyDate       = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
)

// AssembleResults はレース結果の生テーブルを ResultRow に変換します。
// 着順・人気が数値でない行は破棄し、破棄理由を coercion のスキップとして返します。
func AssembleResults(raw *table.RawTable, store *mapping.Store) ([]types.ResultRow, []*types.SkipError) {
	var (
		rows    []types.ResultRow
		dropped []*types.SkipError
	)
	for _, rec := range raw.Records() {
		id := rec[types.ColRaceID] + "/" + rec[types.ColHorseID]

		rank := types.ParseInt(rec[srcRank])
		if rank == nil {
			dropped = append(dropped, types.Skip(types.SkipCoercion, id, fmt.Errorf("着順 %q は数値ではありません", rec[srcRank])))
			continue
		}
		pop := types.ParseInt(rec[srcPopularity])
		if pop == nil {
			dropped = append(dropped, types.Skip(types.SkipCoercion, id, fmt.Errorf("人気 %q は数値ではありません", rec[srcPopularity])))
			continue
		}

		sex, age := splitSexAge(rec[srcSexAge], store)
		weight, diff := SplitWeight(rec[srcWeight])

		rows = append(rows, types.ResultRow{
			RaceID:     rec[types.ColRaceID],
			HorseID:    rec[types.ColHorseID],
			JockeyID:   rec[types.ColJockeyID],
			TrainerID:  rec[types.ColTrainerID],
			OwnerID:    rec[types.ColOwnerID],
			Rank:       *rank,
			Wakuban:    types.ParseInt(rec[srcWakuban]),
			Umaban:     types.ParseInt(rec[srcUmaban]),
			Sex:        sex,
			Age:        age,
			Weight:     weight,
			WeightDiff: diff,
			Tansyo:     types.ParseFloat(rec[srcTansyo]),
			Popularity: *pop,
			Impost:     types.ParseFloat(rec[srcImpost]),
		})
	}
	return rows, dropped
}

// splitSexAge は "牡4" を性別コードと年齢に分けます。
func splitSexAge(s string, store *mapping.Store) (*string, *int) {
	r := []rune(strings.TrimSpace(s))
	if len(r) == 0 {
		return nil, nil
	}
	return store.Code(mapping.KindSex, string(r[0])), types.ParseInt(string(r[1:]))
}

// SplitWeight は "480(+4)" を体重 480 と増減 +4 に分けます。計量不能などで数値が無い場合は欠損です。
func SplitWeight(s string) (*int, *int) {
	s = strings.TrimSpace(s)
	var weight, diff *int
	if m := weightPattern.FindStringSubmatch(s); m != nil {
		weight = types.ParseInt(m[1])
	}
	if m := weightDiffPattern.FindStringSubmatch(s); m != nil {
		diff = types.ParseInt(m[1])
	}
	return weight, diff
}

// AssembleHistory は馬の競走成績の生テーブルを HistoryRow に変換します。
// 着順が数値でない行、日付を解釈できない行は破棄します。
func AssembleHistory(raw *table.RawTable, store *mapping.Store) ([]types.HistoryRow, []*types.SkipError) {
	var (
		rows    []types.HistoryRow
		dropped []*types.SkipError
	)
	for _, rec := range raw.Records() {
		id := rec[types.ColHorseID] + "/" + rec[srcDate]

		rank := types.ParseInt(rec[srcRank])
		if rank == nil {
			dropped = append(dropped, types.Skip(types.SkipCoercion, id, fmt.Errorf("着順 %q は数値ではありません", rec[srcRank])))
			continue
		}
		date, ok := ParseHistoryDate(rec[srcDate])
		if !ok {
			dropped = append(dropped, types.Skip(types.SkipCoercion, id, fmt.Errorf("日付 %q を解釈できません", rec[srcDate])))
			continue
		}

		var prize float64
		if p := types.ParseFloat(rec[srcPrize]); p != nil {
			prize = *p
		}
		rankDiff := types.ParseFloat(rec[srcRankDiff])
		if rankDiff != nil && *rankDiff < 0 {
			rankDiff = types.Ptr(0.0)
		}

		raceType, courseLen := splitDistance(rec[srcDistance], store)

		rows = append(rows, types.HistoryRow{
			HorseID:     rec[types.ColHorseID],
			Date:        date,
			Rank:        *rank,
			Prize:       prize,
			RankDiff:    rankDiff,
			Weather:     code(store, mapping.KindWeather, rec[srcWeather]),
			RaceType:    raceType,
			CourseLen:   courseLen,
			GroundState: code(store, mapping.KindGroundState, rec[srcGround]),
			RaceClass:   store.MatchClass(rec[srcRaceName]),
			NHorses:     types.ParseInt(rec[srcNumHorses]),
		})
	}
	return rows, dropped
}

// splitDistance は "芝2000" をコース種別コードと距離に分けます。
func splitDistance(s string, store *mapping.Store) (*string, *int) {
	r := []rune(strings.TrimSpace(s))
	if len(r) == 0 {
		return nil, nil
	}
	var courseLen *int
	if m := distancePattern.FindStringSubmatch(string(r)); m != nil {
		courseLen = types.ParseInt(m[1])
	}
	return store.Code(mapping.KindRaceType, string(r[0])), courseLen
}

// ParseHistoryDate は "2024/4/14" 形式の日付を YYYY-MM-DD に変換します。
func ParseHistoryDate(s string) (string, bool) {
	m := historyDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%s-%02d-%02d", m[1], month, day), true
}

func code(store *mapping.Store, kind mapping.Kind, token string) *string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return store.Code(kind, token)
}

// ----------------------------------------------------------------------
// レース情報
// ----------------------------------------------------------------------

// NormalizeRace は切り出したトークンをマッピングで正規化します。未知のトークンは欠損になります。
// クラスは完全一致が無い場合、クラス名を含むかどうかで判定します (例: "3歳未勝利" → 未勝利)。
func NormalizeRace(raceID string, tok extract.RaceTokens, store *mapping.Store) types.Race {
	class := code(store, mapping.KindRaceClass, tok.RaceClass)
	if class == nil && tok.RaceClass != "" {
		class = store.MatchClass(tok.RaceClass)
	}
	return types.Race{
		RaceID:      raceID,
		Date:        tok.Date,
		RaceType:    code(store, mapping.KindRaceType, tok.RaceType),
		Around:      code(store, mapping.KindAround, tok.Around),
		CourseLen:   types.ParseInt(tok.CourseLen),
		Weather:     code(store, mapping.KindWeather, tok.Weather),
		GroundState: code(store, mapping.KindGroundState, tok.GroundState),
		RaceClass:   class,
		Place:       code(store, mapping.KindPlace, tok.Place),
	}
}

// AssembleRaces は race_info.csv の生テーブルを Race に変換します。日付を取り出せない行はスキップします。
func AssembleRaces(raw *table.RawTable, store *mapping.Store) ([]types.Race, []*types.SkipError) {
	var (
		races   []types.Race
		skipped []*types.SkipError
	)
	for _, rec := range raw.Records() {
		raceID := rec[types.ColRaceID]
		tok, err := extract.ParseRaceInfo(extract.ParseRaceInfoRecord(rec))
		if err != nil {
			skipped = append(skipped, types.Skip(extract.SkipKindOf(err), raceID, err))
			continue
		}
		races = append(races, NormalizeRace(raceID, tok, store))
	}
	return races, skipped
}
