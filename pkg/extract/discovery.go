package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var (
	kaisaiDatePattern = regexp.MustCompile(`kaisai_date=(\d{8})`)
	raceIDPattern     = regexp.MustCompile(`race_id=(\d{12})`)
)

// ParseEventDates は開催カレンダーから開催日 (YYYYMMDD) を文書順に取り出します。
func ParseEventDates(doc *goquery.Document) []string {
	var dates []string
	doc.Find("table.Calendar_Table a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if m := kaisaiDatePattern.FindStringSubmatch(href); m != nil {
			dates = append(dates, m[1])
		}
	})
	return unique(dates)
}

// ParseRaceIDs はレース一覧ページの各項目の最初のリンクから race_id を取り出します。
func ParseRaceIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("li.RaceList_DataItem").Each(func(_ int, li *goquery.Selection) {
		href, ok := li.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		if m := raceIDPattern.FindStringSubmatch(href); m != nil {
			ids = append(ids, m[1])
		}
	})
	return unique(ids)
}

// unique は出現順を保ったまま重複を除去します。
func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
