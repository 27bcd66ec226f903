package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, uint64(DefaultMaxRetries), cfg.MaxRetries, "既定ではリトライしないこと")
	require.Equal(t, InitialBackoffInterval, cfg.InitialInterval)
	require.Equal(t, MaxBackoffInterval, cfg.MaxInterval)
	require.Equal(t, uint64(4), cfg.WithMaxRetries(4).MaxRetries)
	require.Equal(t, uint64(DefaultMaxRetries), cfg.MaxRetries, "元の設定は変更されないこと")
}

func TestNewBackOffPolicy(t *testing.T) {
	cfg := Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

	bo := newBackOffPolicy(context.Background(), cfg)
	require.NotNil(t, bo)

	assert.NotEqual(t, backoff.Stop, bo.NextBackOff())
	assert.NotEqual(t, backoff.Stop, bo.NextBackOff())
	assert.Equal(t, backoff.Stop, bo.NextBackOff(), "MaxRetries 回の後は停止すること")
}

func TestDo(t *testing.T) {
	testCfg := Config{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond}
	const opName = "test_operation"

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name          string
		ctx           context.Context
		cfg           Config
		failures      int // 成功するまでに返すエラーの回数 (-1 は常に失敗)
		shouldRetry   ShouldRetryFunc
		wantAttempts  int
		expectedError string
	}{
		{
			name:         "successful operation",
			ctx:          context.Background(),
			cfg:          testCfg,
			failures:     0,
			shouldRetry:  func(error) bool { return true },
			wantAttempts: 1,
		},
		{
			name:         "retryable error and success within max retries",
			ctx:          context.Background(),
			cfg:          testCfg,
			failures:     2,
			shouldRetry:  func(error) bool { return true },
			wantAttempts: 3,
		},
		{
			name:          "non retryable error stops immediately",
			ctx:           context.Background(),
			cfg:           testCfg,
			failures:      -1,
			shouldRetry:   func(error) bool { return false },
			wantAttempts:  1,
			expectedError: "test_operationに失敗しました: boom",
		},
		{
			name:          "max retries exceeded",
			ctx:           context.Background(),
			cfg:           testCfg,
			failures:      -1,
			shouldRetry:   func(error) bool { return true },
			wantAttempts:  4,
			expectedError: "test_operationに失敗しました: 最大リトライ回数 (3回) に到達。最終エラー: boom",
		},
		{
			name:          "zero retries runs once",
			ctx:           context.Background(),
			cfg:           testCfg.WithMaxRetries(0),
			failures:      -1,
			shouldRetry:   func(error) bool { return true },
			wantAttempts:  1,
			expectedError: "test_operationに失敗しました: boom",
		},
		{
			name:          "context canceled",
			ctx:           canceled,
			cfg:           testCfg,
			failures:      -1,
			shouldRetry:   func(error) bool { return true },
			wantAttempts:  0,
			expectedError: "test_operationに失敗しました: コンテキストタイムアウト/キャンセル: context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			op := func() error {
				attempts++
				if tt.failures < 0 || attempts <= tt.failures {
					return errors.New("boom")
				}
				return nil
			}

			err := Do(tt.ctx, tt.cfg, opName, op, tt.shouldRetry)

			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.expectedError == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedError, err.Error())
		})
	}
}
