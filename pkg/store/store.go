// Package store は、前処理済みテーブルと特徴量テーブルを SQLite に書き出します。
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/shouni/go-keiba-exact/pkg/table"
)

// Store は SQLite データベースへの接続です。
type Store struct {
	db *sql.DB
}

// Open はデータベースを開きます。":memory:" 以外のパスでは親ディレクトリを作成します。
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ディレクトリ作成に失敗しました: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("データベースを開けませんでした: %w", err)
	}
	// 書き込みは1接続に限定する (":memory:" では接続ごとに別DBになるため)
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースに接続できませんでした: %w", err)
	}
	return &Store{db: db}, nil
}

// Close は接続を閉じます。
func (s *Store) Close() error {
	return s.db.Close()
}

// TableName は出力ファイル名からテーブル名を決めます (例: features.csv → features)。
func TableName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImportTable は RawTable でテーブルを丸ごと置き換えます。全カラムを TEXT とし、空セルは NULL にします。
func (s *Store) ImportTable(ctx context.Context, name string, t *table.RawTable) (int, error) {
	if len(t.Header) == 0 {
		return 0, fmt.Errorf("テーブル %s のカラムがありません", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	cols := make([]string, len(t.Header))
	marks := make([]string, len(t.Header))
	for i, h := range t.Header {
		cols[i] = quoteIdent(h) + " TEXT"
		marks[i] = "?"
	}

	stmts := []string{
		"DROP TABLE IF EXISTS " + quoteIdent(name),
		"CREATE TABLE " + quoteIdent(name) + " (" + strings.Join(cols, ", ") + ")",
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("テーブル %s の作成に失敗しました: %w", name, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, "INSERT INTO "+quoteIdent(name)+" VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return 0, fmt.Errorf("INSERT文の準備に失敗しました: %w", err)
	}
	defer insert.Close()

	args := make([]any, len(t.Header))
	for _, row := range t.Rows {
		for i := range args {
			if i < len(row) && row[i] != "" {
				args[i] = row[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("テーブル %s への挿入に失敗しました: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("コミットに失敗しました: %w", err)
	}
	return len(t.Rows), nil
}

// Count はテーブルの行数を返します。
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("テーブル %s の件数取得に失敗しました: %w", name, err)
	}
	return n, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
