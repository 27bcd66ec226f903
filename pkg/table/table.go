package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// RawTable は、HTMLの<table>やTSVファイルから読み込んだ、型付け前の表データです。
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Index は指定カラムの位置を返します。存在しない場合は -1 です。
func (t *RawTable) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Records は各行をカラム名をキーとするマップに変換します。行の長さが足りないセルは空文字列です。
func (t *RawTable) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// Append は別のテーブルの行を追加します。ヘッダーが異なる場合はカラム名で揃えます。
func (t *RawTable) Append(other *RawTable) {
	if other == nil {
		return
	}
	if len(t.Header) == 0 {
		t.Header = append([]string{}, other.Header...)
	}
	for _, rec := range other.Records() {
		row := make([]string, len(t.Header))
		for i, h := range t.Header {
			row[i] = rec[h]
		}
		t.Rows = append(t.Rows, row)
	}
}

// WithLeadingColumn は先頭に固定値のカラムを追加したコピーを返します。
func (t *RawTable) WithLeadingColumn(name, value string) *RawTable {
	out := &RawTable{Header: append([]string{name}, t.Header...)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append([]string{value}, row...))
	}
	return out
}

// ----------------------------------------------------------------------
// TSV 入出力
// ----------------------------------------------------------------------

// ErrEmptyFile は、ヘッダー行すら存在しないファイルを示します。
var ErrEmptyFile = errors.New("ファイルが空です")

// Write はタブ区切りでテーブルを書き出します。
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("ヘッダーの書き込みに失敗しました: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("行の書き込みに失敗しました: %w", err)
	}
	return nil
}

// WriteFile はファイルを丸ごと書き換えます。親ディレクトリは必要に応じて作成します。
// 一時ファイルに書き込んでから置き換えるため、途中で失敗しても既存ファイルは壊れません。
func WriteFile(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリ作成に失敗しました (%s): %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイル作成に失敗しました: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, header, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ファイルの置き換えに失敗しました (%s): %w", path, err)
	}
	return nil
}

// WriteTable は RawTable をファイルに書き出します。
func WriteTable(path string, t *RawTable) error {
	return WriteFile(path, t.Header, t.Rows)
}

// Read はタブ区切りのテーブルを読み込みます。1行目をヘッダーとして扱います。
func Read(r io.Reader) (*RawTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("TSVの読み込みに失敗しました: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return &RawTable{Header: records[0], Rows: records[1:]}, nil
}

// ReadFile はファイルからテーブルを読み込みます。
func ReadFile(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ファイルを開けませんでした: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
