package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHTTPClient は http.Client の Do メソッドをモックします。
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) != nil {
		return args.Get(0).(*http.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUADoer(t *testing.T) {
	mockClient := new(MockHTTPClient)
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Header.Get("User-Agent") == "test-agent"
	})).Return(&http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil))}, nil).Once()

	d := &uaDoer{next: mockClient, userAgent: "test-agent"}
	req, err := http.NewRequest(http.MethodGet, "https://db.netkeiba.com/race/202405030811", nil)
	require.NoError(t, err)

	resp, err := d.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	mockClient.AssertExpectations(t)
}

func TestNewOptions(t *testing.T) {
	c := New(0)
	assert.Equal(t, uint64(0), c.retryConfig.MaxRetries, "既定ではリトライしないこと")

	c = New(5*time.Second, WithMaxRetries(3))
	assert.Equal(t, uint64(3), c.retryConfig.MaxRetries)
}

func TestFetchBytes(t *testing.T) {
	var (
		hits      atomic.Int32
		gotAgents = make(chan string, 1)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case gotAgents <- r.Header.Get("User-Agent"):
		default:
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html>race</html>"))
	}))
	defer srv.Close()

	c := New(5 * time.Second)

	t.Run("successful fetch sends user agent", func(t *testing.T) {
		body, err := c.FetchBytes(context.Background(), srv.URL+"/race/202405030811")
		require.NoError(t, err)
		assert.Equal(t, "<html>race</html>", string(body))
		assert.Equal(t, DefaultUserAgent, <-gotAgents)
	})

	t.Run("not found is fetched once without retry", func(t *testing.T) {
		hits.Store(0)
		body, err := c.FetchBytes(context.Background(), srv.URL+"/missing")
		assert.Error(t, err)
		assert.Nil(t, body)
		assert.Equal(t, int32(1), hits.Load())
	})
}
