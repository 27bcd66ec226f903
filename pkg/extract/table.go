package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-keiba-exact/pkg/table"
)

// ParseTables は、th または td を含む全ての<table>を文書順に RawTable へ変換します。
func ParseTables(sel *goquery.Selection) []*table.RawTable {
	var tables []*table.RawTable
	sel.Find("table").Each(func(_ int, s *goquery.Selection) {
		if t := processTable(s); t != nil {
			tables = append(tables, t)
		}
	})
	return tables
}

// processTable は goquery.Selection からヘッダーとデータ行を抽出します。
// 最初の行をヘッダーとし、それ以降の td を持つ行をデータ行とします。
// ヘッダー名の半角スペースは除去します。
func processTable(s *goquery.Selection) *table.RawTable {
	if s.Find("th, td").Length() == 0 {
		return nil
	}

	t := &table.RawTable{}
	s.Find("tr").Each(func(_ int, row *goquery.Selection) {
		// 入れ子のテーブルの行は親の行として扱わない
		if row.Closest("table").Get(0) != s.Get(0) {
			return
		}
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}

		var texts []string
		cells.Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, cellText(cell))
		})

		isHeader := row.ChildrenFiltered("td").Length() == 0
		if t.Header == nil {
			for i := range texts {
				texts[i] = strings.ReplaceAll(texts[i], " ", "")
			}
			t.Header = texts
			return
		}
		if isHeader {
			return
		}
		t.Rows = append(t.Rows, fitRow(texts, len(t.Header)))
	})

	if len(t.Header) == 0 {
		return nil
	}
	return t
}

func cellText(cell *goquery.Selection) string {
	return strings.TrimSpace(textUtils.NormalizeText(cell.Text()))
}

// fitRow は行の長さをヘッダーに揃えます。
func fitRow(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
