package extract

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/shouni/go-keiba-exact/pkg/types"
)

// loadFixture は testdata の UTF-8 ファイルを、実際のページと同じ EUC-JP に変換して解析します。
func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	encoded, err := japanese.EUCJP.NewEncoder().Bytes(raw)
	require.NoError(t, err)
	doc, err := NewDocument(encoded)
	require.NoError(t, err)
	return doc
}

func htmlDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestNewDocument_Charset(t *testing.T) {
	const text = "天候 : 晴"

	t.Run("euc-jp with meta", func(t *testing.T) {
		src := `<html><head><meta charset="EUC-JP"></head><body><p>` + text + `</p></body></html>`
		encoded, err := japanese.EUCJP.NewEncoder().String(src)
		require.NoError(t, err)
		doc, err := NewDocument([]byte(encoded))
		require.NoError(t, err)
		assert.Equal(t, text, doc.Find("p").Text())
	})

	t.Run("euc-jp without meta", func(t *testing.T) {
		encoded, err := japanese.EUCJP.NewEncoder().String(`<p>` + text + `</p>`)
		require.NoError(t, err)
		doc, err := NewDocument([]byte(encoded))
		require.NoError(t, err)
		assert.Equal(t, text, doc.Find("p").Text())
	})

	t.Run("utf-8", func(t *testing.T) {
		doc, err := NewDocument([]byte(`<p>` + text + `</p>`))
		require.NoError(t, err)
		assert.Equal(t, text, doc.Find("p").Text())
	})
}

func TestExtractIDs(t *testing.T) {
	doc := htmlDoc(t, `
		<a href="/horse/2019104308/">A</a>
		<a href="/jockey/result/recent/05339/">J</a>
		<a href="/horse/ped/123/">短すぎる</a>
		<a href="https://db.netkeiba.com/horse/2020100001/">絶対URL</a>
		<a href="/horse/12345678901/">長すぎる</a>
		<a href="/horse/2019104308/">A(重複)</a>
		<a href="/horse/x2021100002y/">B</a>
		<a>hrefなし</a>`)

	got := ExtractIDs(doc.Selection, regexp.MustCompile(`^/horse/`), 10)
	want := []string{"2019104308", "2019104308", "2021100002"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractIDs mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, ExtractIDs(doc.Selection, regexp.MustCompile(`^/owner/`), 6))
	assert.Equal(t, []string{"05339"}, ExtractIDs(doc.Selection, regexp.MustCompile(`^/jockey/`), 5))
}

func TestExtractRaceResults(t *testing.T) {
	doc := loadFixture(t, "race.html")

	got, err := ExtractRaceResults(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"着順", "枠番", "馬番", "馬名", "性齢", "斤量", "騎手", "タイム", "着差", "単勝", "人気", "馬体重", "調教師", "馬主",
		types.ColHorseID, types.ColJockeyID, types.ColTrainerID, types.ColOwnerID,
	}, got.Header)
	require.Len(t, got.Rows, 2)

	recs := got.Records()
	assert.Equal(t, "1", recs[0]["着順"])
	assert.Equal(t, "480(+4)", recs[0]["馬体重"])
	assert.Equal(t, "2021104308", recs[0][types.ColHorseID])
	assert.Equal(t, "05339", recs[0][types.ColJockeyID])
	assert.Equal(t, "01088", recs[0][types.ColTrainerID])
	assert.Equal(t, "226800", recs[0][types.ColOwnerID])
	assert.Equal(t, "中止", recs[1]["着順"])
	assert.Equal(t, "001234", recs[1][types.ColOwnerID])
}

func TestExtractRaceResults_Errors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want error
	}{
		{
			name: "no table",
			html: `<html><body><p>no table</p></body></html>`,
			want: ErrNoValidTable,
		},
		{
			name: "empty table",
			html: `<table class="race_table_01"></table>`,
			want: ErrNoValidTable,
		},
		{
			name: "id count mismatch",
			html: `<table class="race_table_01">
				<tr><th>着順</th><th>馬名</th></tr>
				<tr><td>1</td><td><a href="/horse/2021104308/">A</a></td></tr>
				<tr><td>2</td><td>リンクなし</td></tr>
			</table>`,
			want: ErrUnsupportedTitle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractRaceResults(htmlDoc(t, tt.html))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractHorseResults(t *testing.T) {
	doc := loadFixture(t, "horse.html")

	got, err := ExtractHorseResults(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"日付", "開催", "天気", "R", "レース名", "頭数", "着順", "距離", "馬場", "着差", "賞金"}, got.Header)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, "皐月賞(G1)", got.Records()[0]["レース名"])

	t.Run("falls back to third table", func(t *testing.T) {
		doc := htmlDoc(t, `
			<table><tr><th>a</th></tr></table>
			<table><tr><th>b</th></tr></table>
			<table><tr><th>日付</th></tr><tr><td>2024/01/01</td></tr></table>`)
		got, err := ExtractHorseResults(doc)
		require.NoError(t, err)
		assert.Equal(t, []string{"日付"}, got.Header)
	})

	t.Run("too few tables", func(t *testing.T) {
		_, err := ExtractHorseResults(htmlDoc(t, `<table><tr><td>1</td></tr></table>`))
		assert.ErrorIs(t, err, ErrNoValidTable)
		assert.Equal(t, types.SkipNoTable, SkipKindOf(err))
	})
}

func TestExtractRaceInfo(t *testing.T) {
	doc := loadFixture(t, "race.html")

	got, err := ExtractRaceInfo(doc)
	require.NoError(t, err)
	assert.Equal(t, "テスト記念(G1)", got.Title)
	assert.Equal(t, []string{"芝右1800m", "天候:晴", "芝:良", "発走:15:40"}, got.Info1)
	assert.Equal(t, []string{"2024年5月3日", "3回東京4日目", "3歳未勝利", "混", "指", "馬齢"}, got.Info2)

	t.Run("record round trip", func(t *testing.T) {
		rec := map[string]string{}
		for i, col := range types.RaceInfoColumns {
			rec[col] = got.Record("202405030811")[i]
		}
		assert.Equal(t, got, ParseRaceInfoRecord(rec))
	})
}

func TestExtractRaceInfo_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no container", `<div class="other"><h1>x</h1><p>2024年5月3日</p></div>`},
		{"no heading", `<div class="data_intro"><p>芝右1800m</p><p>2024年5月3日</p></div>`},
		{"no date", `<div class="data_intro"><h1>x</h1><p>芝右1800m</p></div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractRaceInfo(htmlDoc(t, tt.html))
			assert.ErrorIs(t, err, ErrUnsupportedTitle)
			assert.Equal(t, types.SkipUnsupportedTitle, SkipKindOf(err))
		})
	}
}

func TestParseRaceInfo(t *testing.T) {
	tests := []struct {
		name    string
		raw     RaceInfoRaw
		want    RaceTokens
		wantErr bool
	}{
		{
			name: "turf right",
			raw: RaceInfoRaw{
				Info1: []string{"芝右1800m", "天候:晴", "ダート:良"},
				Info2: []string{"2024年5月3日", "3回東京4日目", "3歳未勝利"},
			},
			want: RaceTokens{
				Date: "2024-05-03", RaceType: "芝", Around: "右", CourseLen: "1800",
				Weather: "晴", GroundState: "良", RaceClass: "3歳未勝利", Place: "東京",
			},
		},
		{
			name: "dirt left, two-digit day count",
			raw: RaceInfoRaw{
				Info1: []string{"ダ左1400m", "天候:小雨", "ダート:稍重"},
				Info2: []string{"2023年12月28日", "5回中山12日目", "2歳新馬"},
			},
			want: RaceTokens{
				Date: "2023-12-28", RaceType: "ダ", Around: "左", CourseLen: "1400",
				Weather: "小雨", GroundState: "稍重", RaceClass: "2歳新馬", Place: "中山",
			},
		},
		{
			name: "missing tokens become empty",
			raw: RaceInfoRaw{
				Info1: []string{"障芝3000m"},
				Info2: []string{"2024年1月6日"},
			},
			want: RaceTokens{Date: "2024-01-06", RaceType: "障", CourseLen: "3000"},
		},
		{
			name:    "no date",
			raw:     RaceInfoRaw{Info1: []string{"芝右1800m"}, Info2: []string{"3回東京4日目"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRaceInfo(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedTitle)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDiscoveryPages(t *testing.T) {
	t.Run("calendar", func(t *testing.T) {
		doc := htmlDoc(t, `<table class="Calendar_Table">
			<tr><td><a href="../top/race_list.html?kaisai_date=20240106">6</a></td>
			<td><a href="../top/race_list.html?kaisai_date=20240107">7</a></td>
			<td><a href="../top/race_list.html?kaisai_date=20240106">6</a></td>
			<td><a href="/other">x</a></td></tr></table>
			<a href="race_list.html?kaisai_date=20240108">カレンダー外</a>`)
		assert.Equal(t, []string{"20240106", "20240107"}, ParseEventDates(doc))
	})

	t.Run("race list", func(t *testing.T) {
		doc := htmlDoc(t, `<ul>
			<li class="RaceList_DataItem"><a href="../race/result.html?race_id=202406010101&rf=race_list">1R</a><a href="../race/movie.html?race_id=999999999999">動画</a></li>
			<li class="RaceList_DataItem"><a href="../race/result.html?race_id=202406010102&rf=race_list">2R</a></li>
			<li class="RaceList_DataItem"><span>リンクなし</span></li>
		</ul>`)
		assert.Equal(t, []string{"202406010101", "202406010102"}, ParseRaceIDs(doc))
	})
}
