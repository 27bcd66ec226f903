package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var digitRun = regexp.MustCompile(`\d+`)

// IDSpec は、リンク先パターンと抽出するIDの桁数の組です。
type IDSpec struct {
	Column  string
	Pattern *regexp.Regexp
	Length  int
}

// ExtractIDs は href が pattern に一致する全ての<a>から、ちょうど length 桁の最初の数字列を取り出します。
// 文書順を保持し、重複は除去しません。該当する数字列を持たないリンクは黙って読み飛ばします。
func ExtractIDs(sel *goquery.Selection, pattern *regexp.Regexp, length int) []string {
	ids := []string{}
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !pattern.MatchString(href) {
			return
		}
		for _, run := range digitRun.FindAllString(href, -1) {
			if len(run) == length {
				ids = append(ids, run)
				return
			}
		}
	})
	return ids
}
