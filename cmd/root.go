package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-keiba-exact/internal/config"
	"github.com/shouni/go-keiba-exact/internal/pipeline"
	"github.com/shouni/go-keiba-exact/pkg/browser"
	"github.com/shouni/go-keiba-exact/pkg/client"
	"github.com/shouni/go-keiba-exact/pkg/metrics"
	"github.com/shouni/go-keiba-exact/pkg/scraper"
)

// --- グローバル定数 ---

const appName = "keiba-exact"

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	ConfigFile  string  // --config-file 設定ファイル (YAML)
	TimeoutSec  int     // --timeout タイムアウト
	MaxRetries  int     // --max-retries リトライ回数
	WaitSeconds float64 // --wait リクエスト前の待機秒数
}

var Flags AppFlags
var globalConfig *config.Config

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	defaults := config.New()
	rootCmd.PersistentFlags().StringVar(&Flags.ConfigFile, "config-file", "", "設定ファイル (YAML) のパス。環境変数 KEIBA_* でも上書きできます")
	rootCmd.PersistentFlags().IntVar(&Flags.TimeoutSec, "timeout", defaults.TimeoutSeconds, "HTTPリクエストのタイムアウト時間（秒）")
	rootCmd.PersistentFlags().IntVar(&Flags.MaxRetries, "max-retries", defaults.MaxRetries, "HTTPリクエストのリトライ最大回数 (0でリトライしない)")
	rootCmd.PersistentFlags().Float64Var(&Flags.WaitSeconds, "wait", defaults.WaitSeconds, "各リクエストの前に待機する秒数")
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// 設定は 既定値 < 設定ファイル < 環境変数 < 明示したフラグ の順に優先されます。
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = Flags.TimeoutSec
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = Flags.MaxRetries
	}
	if flags.Changed("wait") {
		cfg.WaitSeconds = Flags.WaitSeconds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if clibase.Flags.Verbose {
		log.Printf("HTTPクライアントのタイムアウトを設定しました (Timeout: %s)。", cfg.Timeout())
		log.Printf("HTTPクライアントのリトライ回数を設定しました (MaxRetries: %d)。", cfg.MaxRetries)
		log.Printf("リクエスト間の待機時間を設定しました (Wait: %s)。", cfg.Wait())
	}

	globalConfig = cfg
	return nil
}

// commandContext は Ctrl+C でキャンセルされるコンテキストを返します。
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

// newPipeline は設定からパイプラインを組み立てます。online が true の場合は Scraper も用意します。
// 戻り値の closer でヘッドレスブラウザなどの資源を解放します。
func newPipeline(online bool) (*pipeline.Pipeline, func(), error) {
	if globalConfig == nil {
		return nil, nil, fmt.Errorf("設定が初期化されていません")
	}
	cfg := globalConfig
	recorder := metrics.New()
	closer := func() {}

	opts := []pipeline.Option{pipeline.WithRecorder(recorder)}
	if online {
		httpClient := client.New(
			cfg.Timeout(),
			client.WithUserAgent(cfg.UserAgent),
			client.WithMaxRetries(uint64(cfg.MaxRetries)),
		)

		scraperOpts := []scraper.Option{scraper.WithRecorder(recorder)}
		if cfg.RaceListRenderer == config.RendererBrowser {
			renderer := browser.New(browser.WithRemoteURL(cfg.BrowserURL), browser.WithTimeout(cfg.Timeout()))
			scraperOpts = append(scraperOpts, scraper.WithListFetcher(renderer))
			closer = func() {
				if err := renderer.Close(); err != nil {
					log.Printf("警告: ブラウザの終了に失敗しました: %v", err)
				}
			}
		}

		sc, err := scraper.New(httpClient, cfg.Wait(), scraperOpts...)
		if err != nil {
			closer()
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithScraper(sc))
	}
	return pipeline.New(cfg, opts...), closer, nil
}

// finish はメトリクスを書き出し、実行結果の表を表示します。
func finish(p *pipeline.Pipeline, runErr error) error {
	if err := p.Finish(); err != nil {
		log.Printf("警告: %v", err)
	}
	printReport(os.Stdout, p.Report())
	return runErr
}

// --- エントリポイント ---

// Execute は、rootCmd を実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		scrapeCmd,
		preprocessCmd,
		featuresCmd,
		exportCmd,
		runCmd,
	)
}
