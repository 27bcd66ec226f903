package scraper

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/go-keiba-exact/pkg/extract"
)

// Month は開催カレンダーの対象年月です。
type Month struct {
	Year  int
	Month int
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Months は from から to まで (両端を含む) の年月を返します。書式は YYYY-MM です。
func Months(from, to string) ([]Month, error) {
	start, err := time.Parse("2006-01", from)
	if err != nil {
		return nil, fmt.Errorf("開始年月 %q を解釈できません: %w", from, err)
	}
	end, err := time.Parse("2006-01", to)
	if err != nil {
		return nil, fmt.Errorf("終了年月 %q を解釈できません: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("終了年月 %s が開始年月 %s より前です", to, from)
	}

	var months []Month
	for t := start; !t.After(end); t = t.AddDate(0, 1, 0) {
		months = append(months, Month{Year: t.Year(), Month: int(t.Month())})
	}
	return months, nil
}

// parsePage は取得結果を解析し、ページから値の一覧を取り出します。
func parsePage(body []byte, fetchErr error, parse func(*goquery.Document) []string) ([]string, error) {
	if fetchErr != nil {
		return nil, fetchErr
	}
	doc, err := extract.NewDocument(body)
	if err != nil {
		return nil, err
	}
	return parse(doc), nil
}
