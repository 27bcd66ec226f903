package extract

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// NewDocument は保存済みの生バイト列を UTF-8 に変換してから goquery.Document を生成します。
// UTF-8 として妥当でなければ <meta charset> から判定し、判定できない場合は EUC-JP として扱います。
func NewDocument(data []byte) (*goquery.Document, error) {
	decoded, err := toUTF8(data)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}
	return doc, nil
}

func toUTF8(data []byte) ([]byte, error) {
	// ブラウザでレンダリングしたHTMLは <meta charset> が残ったまま UTF-8 で保存される
	if utf8.Valid(data) {
		return data, nil
	}
	enc, name, certain := charset.DetermineEncoding(data, "text/html")
	if name == "utf-8" {
		return data, nil
	}
	// 判定不能時の既定値 (windows-1252) は使わない
	if !certain && name == "windows-1252" {
		enc = japanese.EUCJP
	}
	return decodeWith(enc, data)
}

func decodeWith(enc encoding.Encoding, data []byte) ([]byte, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("文字コードの変換に失敗しました: %w", err)
	}
	return out, nil
}
