package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries は既定の最大リトライ回数です。
	// 取得失敗はその1件をスキップして次へ進むため、既定ではリトライしません。
	DefaultMaxRetries = 0

	// バックオフのカスタム設定
	InitialBackoffInterval = 3 * time.Second
	MaxBackoffInterval     = 30 * time.Second
)

// Operation はリトライ可能な処理を表す関数です。成功時は nil を返します。
type Operation func() error

// ShouldRetryFunc はエラーを受け取り、そのエラーがリトライ可能かどうかを判定する関数です。
type ShouldRetryFunc func(error) bool

// Config はリトライ動作を設定するための構造体です。
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig は既定の設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: InitialBackoffInterval,
		MaxInterval:     MaxBackoffInterval,
	}
}

// WithMaxRetries は最大リトライ回数だけを差し替えた Config を返します。
func (c Config) WithMaxRetries(n uint64) Config {
	c.MaxRetries = n
	return c
}

// newBackOffPolicy は Config から指数バックオフのポリシーを生成します。
func newBackOffPolicy(ctx context.Context, cfg Config) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	// 試行回数で打ち切るため、経過時間による打ち切りは無効化する
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)
}

// Do は op を実行し、shouldRetryFn が true を返すエラーの場合のみ最大 cfg.MaxRetries 回まで再試行します。
// MaxRetries が 0 の場合は1回だけ実行します。
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetryFn ShouldRetryFunc) error {
	if shouldRetryFn == nil {
		shouldRetryFn = func(error) bool { return false }
	}

	var (
		lastErr  error
		attempts uint64
	)

	err := backoff.Retry(func() error {
		// 待機中にキャンセルされた場合は実行しない
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) || !shouldRetryFn(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBackOffPolicy(ctx, cfg))

	if err == nil {
		return nil
	}

	// コンテキストキャンセル/タイムアウトのエラー処理
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, err)
	}

	if cfg.MaxRetries > 0 && attempts > cfg.MaxRetries && shouldRetryFn(lastErr) {
		return fmt.Errorf("%sに失敗しました: 最大リトライ回数 (%d回) に到達。最終エラー: %w", operationName, cfg.MaxRetries, lastErr)
	}
	return fmt.Errorf("%sに失敗しました: %w", operationName, lastErr)
}
