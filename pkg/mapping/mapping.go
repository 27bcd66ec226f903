package mapping

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Kind はマッピングファイルの種類です。ファイル名は <Kind>.json です。
type Kind string

const (
	KindSex         Kind = "sex"
	KindWeather     Kind = "weather"
	KindRaceType    Kind = "race_type"
	KindGroundState Kind = "ground_state"
	KindRaceClass   Kind = "race_class"
	KindAround      Kind = "around"
	KindPlace       Kind = "place"
)

// Kinds は読み込み対象のマッピング種別の一覧です。
var Kinds = []Kind{KindSex, KindWeather, KindRaceType, KindGroundState, KindRaceClass, KindAround, KindPlace}

// Table は生のトークンから正規化コードへの不変なマップです。
type Table map[string]string

// Store は全マッピングを保持します。ロード後は変更されないため、複数ステージから共有できます。
type Store struct {
	tables map[Kind]Table
	class  *regexp.Regexp // race_class のキーを結合した正規表現 (キーが無い場合は nil)
}

// New はメモリ上のテーブルから Store を生成します。
func New(tables map[Kind]Table) *Store {
	s := &Store{tables: make(map[Kind]Table, len(tables))}
	for k, t := range tables {
		cp := make(Table, len(t))
		for token, code := range t {
			cp[token] = code
		}
		s.tables[k] = cp
	}
	s.class = compileClassMatcher(s.tables[KindRaceClass])
	return s
}

// Load はディレクトリから全マッピングファイルを読み込みます。
// ファイルが無い、または不正な場合は警告を出して空のテーブルとして扱います。
func Load(dir string) *Store {
	tables := make(map[Kind]Table, len(Kinds))
	for _, k := range Kinds {
		t, err := LoadFile(filepath.Join(dir, string(k)+".json"))
		if err != nil {
			log.Printf("警告: マッピング %s を読み込めませんでした。空のテーブルとして扱います: %v", k, err)
			t = Table{}
		}
		tables[k] = t
	}
	return New(tables)
}

// LoadFile は1つのマッピングファイルを読み込みます。値の数値・文字列はいずれもコード文字列に変換されます。
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s が見つかりません: %w", filepath.Base(path), err)
		}
		return nil, fmt.Errorf("%s の読み込みに失敗しました: %w", filepath.Base(path), err)
	}

	var raw map[string]any
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s は有効なJSONファイルではありません: %w", filepath.Base(path), err)
	}

	t := make(Table, len(raw))
	for token, v := range raw {
		code, ok := codeString(v)
		if !ok {
			return nil, fmt.Errorf("%s: キー %q の値 %v はコードとして扱えません", filepath.Base(path), token, v)
		}
		t[token] = code
	}
	return t, nil
}

func codeString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// Lookup はトークンに対応するコードを返します。未知のトークンは ok=false で、エラーにはなりません。
func (s *Store) Lookup(kind Kind, token string) (string, bool) {
	t, ok := s.tables[kind]
	if !ok {
		return "", false
	}
	code, ok := t[token]
	return code, ok
}

// Code は Lookup の結果を欠損値 (nil) 付きで返します。
func (s *Store) Code(kind Kind, token string) *string {
	code, ok := s.Lookup(kind, token)
	if !ok {
		return nil
	}
	return &code
}

// Keys は指定種別のトークン一覧をソートして返します。
func (s *Store) Keys(kind Kind) []string {
	keys := make([]string, 0, len(s.tables[kind]))
	for k := range s.tables[kind] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MatchClass は自由文 (レース名など) から race_class のキーを探し、最初に一致したキーのコードを返します。
// 同じ位置で複数のキーが一致する場合は長いキーを優先します。
func (s *Store) MatchClass(text string) *string {
	if s.class == nil {
		return nil
	}
	m := s.class.FindString(text)
	if m == "" {
		return nil
	}
	return s.Code(KindRaceClass, m)
}

// compileClassMatcher は race_class のキーを長さ降順・辞書順で並べた選択パターンを生成します。
func compileClassMatcher(t Table) *regexp.Regexp {
	keys := make([]string, 0, len(t))
	for k := range t {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := len([]rune(keys[i])), len([]rune(keys[j]))
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}
