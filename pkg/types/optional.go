package types

import (
	"strconv"
	"strings"
)

// 欠損値はTSV上で空文字列として表現します。

func FormatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func FormatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// ParseInt は整数に変換できない値を欠損 (nil) として返します。
// "3.0" のような整数値の小数表記も受け付けます。
func ParseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	v := int(f)
	return &v
}

// ParseFloat は数値に変換できない値を欠損 (nil) として返します。桁区切りのカンマは無視します。
func ParseFloat(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseString は空文字列を欠損 (nil) として返します。
func ParseString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Ptr[T any](v T) *T { return &v }
