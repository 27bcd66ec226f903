package types

import (
	"errors"
	"fmt"
)

// SkipKind は、1件の処理対象（HTMLドキュメント・ID）をスキップした理由の分類です。
type SkipKind string

const (
	// SkipNoTable は、ドキュメントに有効な<table>が見つからなかったことを示します。
	SkipNoTable SkipKind = "no_table"
	// SkipUnsupportedTitle は、想定外のHTML構造（対応していないレース種別など）を示します。
	SkipUnsupportedTitle SkipKind = "unsupported_title"
	// SkipNetwork は、HTTP取得の失敗を示します。
	SkipNetwork SkipKind = "network"
	// SkipCoercion は、値の型変換に失敗し行を破棄したことを示します。
	SkipCoercion SkipKind = "coercion"
)

// SkipError は、1件の処理対象をスキップした理由を保持するエラー型です。
type SkipError struct {
	Kind  SkipKind
	ID    string
	Cause error
}

func (e *SkipError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: スキップしました (%s): %v", e.ID, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: スキップしました (%s)", e.ID, e.Kind)
}

func (e *SkipError) Unwrap() error { return e.Cause }

// Skip は SkipError を生成するヘルパーです。
func Skip(kind SkipKind, id string, cause error) *SkipError {
	return &SkipError{Kind: kind, ID: id, Cause: cause}
}

// AsSkip は err が SkipError を含む場合にそれを取り出します。
func AsSkip(err error) (*SkipError, bool) {
	var se *SkipError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ItemResult は、特定のIDに対する処理結果、またはその処理中に発生したスキップ理由を保持します。
// これは、Scraperや各抽出ステージの出力として利用されます。
type ItemResult struct {
	ID   string // 処理対象のID (race_id / horse_id / 開催日など)
	Path string // 保存先または読み込み元のファイルパス
	Err  error  // スキップ理由 (成功時は nil)
}

// OK は処理が成功したかを返します。
func (r ItemResult) OK() bool { return r.Err == nil }
