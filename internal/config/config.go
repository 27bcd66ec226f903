// Package config は、パイプライン全体の設定を保持します。
// 起動時に1度だけ組み立て、各ステージへ明示的に渡します。
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// レンダラーの種類
const (
	RendererHTTP    = "http"
	RendererBrowser = "browser"
)

var (
	// ErrInvalidConfig は設定値の検証エラーです。
	ErrInvalidConfig = errors.New("設定が不正です")
	// ErrLoadConfig は設定の読み込みエラーです。
	ErrLoadConfig = errors.New("設定の読み込みに失敗しました")
)

// Config はパス・URL・取得条件・集計条件をまとめた設定です。
type Config struct {
	// 入出力ディレクトリ
	DataDir      string `koanf:"data_dir"`
	HTMLRaceDir  string `koanf:"html_race_dir"`
	HTMLHorseDir string `koanf:"html_horse_dir"`
	SaveDir      string `koanf:"save_dir"`
	MappingDir   string `koanf:"mapping_dir"`

	// 出力ファイル名 (SaveDir 配下、タブ区切り)
	RaceResultsFile         string `koanf:"race_results_file"`
	HorseResultsFile        string `koanf:"horse_results_file"`
	RaceInfoFile            string `koanf:"race_info_file"`
	RaceInfoPreprocessed    string `koanf:"race_info_preprocessed_file"`
	PreprocessedRaceResults string `koanf:"preprocessed_race_results_file"`
	PreprocessedHorseResult string `koanf:"preprocessed_horse_results_file"`
	FeaturesFile            string `koanf:"features_file"`

	// URLテンプレート ({year} {month} {date} {id} を置換)
	CalendarURL string `koanf:"calendar_url"`
	RaceListURL string `koanf:"race_list_url"`
	RaceURL     string `koanf:"race_url"`
	HorseURL    string `koanf:"horse_url"`
	UserAgent   string `koanf:"user_agent"`

	// 取得条件
	From             string  `koanf:"from"` // YYYY-MM
	To               string  `koanf:"to"`   // YYYY-MM
	WaitSeconds      float64 `koanf:"wait_seconds"`
	TimeoutSeconds   int     `koanf:"timeout_seconds"`
	MaxRetries       int     `koanf:"max_retries"`
	RaceListRenderer string  `koanf:"race_list_renderer"`
	BrowserURL       string  `koanf:"browser_url"`

	// 直近nレースの集計ウィンドウ
	Windows []int `koanf:"windows"`

	// 付随する出力 (空文字列で無効)
	MetricsFile string `koanf:"metrics_file"`
	SQLitePath  string `koanf:"sqlite_path"`
}

// New は既定値で Config を生成します。
func New() *Config {
	return &Config{
		DataDir:      "data",
		HTMLRaceDir:  filepath.Join("data", "html", "race"),
		HTMLHorseDir: filepath.Join("data", "html", "horse"),
		SaveDir:      filepath.Join("data", "rawdf"),
		MappingDir:   "mapping",

		RaceResultsFile:         "race_results.csv",
		HorseResultsFile:        "horse_results.csv",
		RaceInfoFile:            "race_info.csv",
		RaceInfoPreprocessed:    "race_info_preprocessed.csv",
		PreprocessedRaceResults: "preprocessed_race_results.csv",
		PreprocessedHorseResult: "preprocessed_horse_results.csv",
		FeaturesFile:            "features.csv",

		CalendarURL: "https://race.netkeiba.com/top/calendar.html?year={year}&month={month}",
		RaceListURL: "https://race.netkeiba.com/top/race_list.html?kaisai_date={date}",
		RaceURL:     "https://db.netkeiba.com/race/{id}",
		HorseURL:    "https://db.netkeiba.com/horse/{id}",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.88 Safari/537.36",

		From:             "2024-01",
		To:               "2024-11",
		WaitSeconds:      3,
		TimeoutSeconds:   30,
		MaxRetries:       0,
		RaceListRenderer: RendererHTTP,

		Windows: []int{3, 5, 10, 1000},

		MetricsFile: filepath.Join("data", "metrics", "keiba.prom"),
		SQLitePath:  filepath.Join("data", "keiba.sqlite"),
	}
}

// Validate は設定値を検証します。
func (c *Config) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{{"from", c.From}, {"to", c.To}} {
		if _, err := time.Parse("2006-01", f.value); err != nil {
			errs = append(errs, fmt.Errorf("%s は YYYY-MM 形式で指定してください: %q", f.name, f.value))
		}
	}
	if c.WaitSeconds < 0 {
		errs = append(errs, fmt.Errorf("wait_seconds は0以上で指定してください: %v", c.WaitSeconds))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries は0以上で指定してください: %d", c.MaxRetries))
	}
	if c.RaceListRenderer != RendererHTTP && c.RaceListRenderer != RendererBrowser {
		errs = append(errs, fmt.Errorf("race_list_renderer は %s または %s です: %q", RendererHTTP, RendererBrowser, c.RaceListRenderer))
	}
	if len(c.Windows) == 0 {
		errs = append(errs, errors.New("windows を1つ以上指定してください"))
	}
	for _, n := range c.Windows {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("windows は正の整数です: %d", n))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Wait はリクエスト前の待機時間です。
func (c *Config) Wait() time.Duration {
	return time.Duration(c.WaitSeconds * float64(time.Second))
}

// Timeout はHTTPリクエストのタイムアウトです。
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SavePath は SaveDir 配下の出力ファイルのパスを返します。
func (c *Config) SavePath(name string) string {
	return filepath.Join(c.SaveDir, name)
}

// RaceIDListPath は収集した race_id 一覧のキャッシュファイルです (例: data/race_id_202401_202411.txt)。
func (c *Config) RaceIDListPath() string {
	compact := func(s string) string { return strings.ReplaceAll(s, "-", "") }
	return filepath.Join(c.DataDir, fmt.Sprintf("race_id_%s_%s.txt", compact(c.From), compact(c.To)))
}

// CalendarURLFor は開催カレンダーのURLを返します。
func (c *Config) CalendarURLFor(year, month int) string {
	return strings.NewReplacer("{year}", strconv.Itoa(year), "{month}", strconv.Itoa(month)).Replace(c.CalendarURL)
}

// RaceListURLFor は開催日 (YYYYMMDD) のレース一覧URLを返します。
func (c *Config) RaceListURLFor(date string) string {
	return strings.ReplaceAll(c.RaceListURL, "{date}", date)
}

// RaceURLFor はレース詳細ページのURLを返します。
func (c *Config) RaceURLFor(raceID string) string {
	return strings.ReplaceAll(c.RaceURL, "{id}", raceID)
}

// HorseURLFor は馬詳細ページのURLを返します。
func (c *Config) HorseURLFor(horseID string) string {
	return strings.ReplaceAll(c.HorseURL, "{id}", horseID)
}
