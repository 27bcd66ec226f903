package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/go-keiba-exact/pkg/table"
	"github.com/shouni/go-keiba-exact/pkg/types"
)

var (
	// ErrNoValidTable は、ドキュメントに有効な<table>が無いことを示します。
	ErrNoValidTable = errors.New("HTMLドキュメントに有効な<table>要素が見つかりませんでした。")
	// ErrUnsupportedTitle は、想定と異なる構造のドキュメントであることを示します。
	ErrUnsupportedTitle = errors.New("対応していないレースタイトルのドキュメントです。")
)

// SkipKindOf は抽出エラーをスキップ理由の分類に変換します。
func SkipKindOf(err error) types.SkipKind {
	switch {
	case errors.Is(err, ErrNoValidTable):
		return types.SkipNoTable
	case errors.Is(err, ErrUnsupportedTitle):
		return types.SkipUnsupportedTitle
	default:
		return types.SkipCoercion
	}
}

// ----------------------------------------------------------------------
// レース結果・馬成績テーブル
// ----------------------------------------------------------------------

const (
	raceResultSelector    = "table.race_table_01"
	horseResultSelector   = "table.db_h_race_results"
	horseResultTableIndex = 2 // 専用クラスが無い場合は3番目の有効なテーブル
)

// ResultIDSpecs はレース結果テーブルから取り出す4種類のIDです。
var ResultIDSpecs = []IDSpec{
	{Column: types.ColHorseID, Pattern: regexp.MustCompile(`^/horse/`), Length: 10},
	{Column: types.ColJockeyID, Pattern: regexp.MustCompile(`^/jockey/`), Length: 5},
	{Column: types.ColTrainerID, Pattern: regexp.MustCompile(`^/trainer/`), Length: 5},
	{Column: types.ColOwnerID, Pattern: regexp.MustCompile(`^/owner/`), Length: 6},
}

// ExtractRaceResults はレースページの結果テーブルを取り出し、各行に horse_id などのIDカラムを追加します。
// IDの件数が行数と一致しない場合は、想定外の構造として扱います。
func ExtractRaceResults(doc *goquery.Document) (*table.RawTable, error) {
	sel := doc.Find(raceResultSelector).First()
	if sel.Length() == 0 {
		sel = doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Find("th, td").Length() > 0
		}).First()
	}
	if sel.Length() == 0 {
		return nil, ErrNoValidTable
	}

	t := processTable(sel)
	if t == nil || len(t.Rows) == 0 {
		return nil, ErrNoValidTable
	}

	for _, spec := range ResultIDSpecs {
		ids := ExtractIDs(sel, spec.Pattern, spec.Length)
		if len(ids) != len(t.Rows) {
			return nil, fmt.Errorf("%w: %s の件数 (%d) が行数 (%d) と一致しません", ErrUnsupportedTitle, spec.Column, len(ids), len(t.Rows))
		}
		t.Header = append(t.Header, spec.Column)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], ids[i])
		}
	}
	return t, nil
}

// ExtractHorseResults は馬ページの競走成績テーブルを取り出します。
func ExtractHorseResults(doc *goquery.Document) (*table.RawTable, error) {
	if sel := doc.Find(horseResultSelector).First(); sel.Length() > 0 {
		if t := processTable(sel); t != nil {
			return t, nil
		}
		return nil, ErrNoValidTable
	}

	tables := ParseTables(doc.Selection)
	if len(tables) <= horseResultTableIndex {
		return nil, ErrNoValidTable
	}
	return tables[horseResultTableIndex], nil
}

// ----------------------------------------------------------------------
// レース情報
// ----------------------------------------------------------------------

var (
	infoToken        = regexp.MustCompile(`[\p{L}\p{N}_:]+`)
	datePattern      = regexp.MustCompile(`(\d+)年(\d+)月(\d+)日`)
	raceTypePattern  = regexp.MustCompile(`[芝ダ障]`)
	aroundPattern    = regexp.MustCompile(`[左右]`)
	courseLenPattern = regexp.MustCompile(`(\d+)m`)
	groundPattern    = regexp.MustCompile(`^([^:]+):(.+)$`)
	placePattern     = regexp.MustCompile(`\d+回(\D+?)\d+日目`)
)

// tokenSeparator は race_info.csv 上でトークン列を1セルに収めるための区切り文字です。
const tokenSeparator = "|"

// RaceInfoRaw は div.data_intro から取り出した、未加工のレース情報です。
type RaceInfoRaw struct {
	Title string
	Info1 []string // コース・天候・馬場
	Info2 []string // 日付・開催・クラス
}

// ExtractRaceInfo はレースページからタイトルと2つの情報ブロックを取り出します。
func ExtractRaceInfo(doc *goquery.Document) (RaceInfoRaw, error) {
	intro := doc.Find("div.data_intro").First()
	if intro.Length() == 0 {
		return RaceInfoRaw{}, fmt.Errorf("%w: div.data_intro がありません", ErrUnsupportedTitle)
	}
	h1 := intro.Find("h1").First()
	if h1.Length() == 0 {
		return RaceInfoRaw{}, fmt.Errorf("%w: h1 がありません", ErrUnsupportedTitle)
	}
	ps := intro.Find("p")
	if ps.Length() == 0 {
		return RaceInfoRaw{}, fmt.Errorf("%w: p がありません", ErrUnsupportedTitle)
	}

	info := RaceInfoRaw{
		Title: strings.TrimSpace(h1.Text()),
		Info1: infoToken.FindAllString(strings.ReplaceAll(ps.First().Text(), " ", ""), -1),
	}

	ps.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if datePattern.MatchString(p.Text()) {
			info.Info2 = infoToken.FindAllString(p.Text(), -1)
			return false
		}
		return true
	})
	if info.Info2 == nil {
		return RaceInfoRaw{}, fmt.Errorf("%w: 日付を含む段落がありません", ErrUnsupportedTitle)
	}
	return info, nil
}

// Record は RaceInfoColumns の順に値を並べます。
func (r RaceInfoRaw) Record(raceID string) []string {
	return []string{raceID, r.Title, strings.Join(r.Info1, tokenSeparator), strings.Join(r.Info2, tokenSeparator)}
}

// ParseRaceInfoRecord は race_info.csv の1行から RaceInfoRaw を復元します。
func ParseRaceInfoRecord(rec map[string]string) RaceInfoRaw {
	return RaceInfoRaw{
		Title: rec[types.ColTitle],
		Info1: splitTokens(rec[types.ColInfo1]),
		Info2: splitTokens(rec[types.ColInfo2]),
	}
}

func splitTokens(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, tokenSeparator)
}

// RaceTokens は情報ブロックから位置と正規表現で切り出した、マッピング前の値です。見つからない値は空文字列です。
type RaceTokens struct {
	Date        string // YYYY-MM-DD
	RaceType    string
	Around      string
	CourseLen   string
	Weather     string
	GroundState string
	RaceClass   string
	Place       string
}

// ParseRaceInfo は情報ブロックを各項目に分解します。
// 位置で参照するトークンが無い項目は空文字列になります。日付が見つからない場合のみ ErrUnsupportedTitle を返します。
func ParseRaceInfo(raw RaceInfoRaw) (RaceTokens, error) {
	course := at(raw.Info1, 0)
	tok := RaceTokens{
		RaceType:  raceTypePattern.FindString(course),
		Around:    aroundPattern.FindString(course),
		CourseLen: submatch(courseLenPattern, course, 1),
		// "天候:晴" の4文字目以降
		Weather:     runeSuffix(at(raw.Info1, 1), 3),
		GroundState: submatch(groundPattern, at(raw.Info1, 2), 2),
		RaceClass:   at(raw.Info2, 2),
		Place:       submatch(placePattern, at(raw.Info2, 1), 1),
	}

	for _, t := range raw.Info2 {
		if m := datePattern.FindStringSubmatch(t); m != nil {
			tok.Date = formatDate(m[1], m[2], m[3])
			break
		}
	}
	if tok.Date == "" {
		return RaceTokens{}, fmt.Errorf("%w: 日付が見つかりません", ErrUnsupportedTitle)
	}
	return tok, nil
}

func at(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

func submatch(re *regexp.Regexp, s string, group int) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[group]
}

func runeSuffix(s string, offset int) string {
	r := []rune(s)
	if len(r) <= offset {
		return ""
	}
	return string(r[offset:])
}

// formatDate は年・月・日を YYYY-MM-DD に0埋めします。
func formatDate(y, m, d string) string {
	return fmt.Sprintf("%s-%s-%s", y, pad2(m), pad2(d))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
