package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketview/internal/clients/coingecko"
	"github.com/bobmcallan/marketview/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   FetchErrorKind
		wantStatus int
		wantMsg    string
	}{
		{
			name:     "transport failure",
			err:      fmt.Errorf("failed to execute request: %w", errors.New("dial tcp: connection refused")),
			wantKind: KindNetwork,
			wantMsg:  "Network error (status 0). Usually CORS, a blocked request, or you are offline.",
		},
		{
			name:     "status zero",
			err:      &coingecko.APIError{StatusCode: 0},
			wantKind: KindNetwork,
		},
		{
			name:       "rate limited",
			err:        &coingecko.APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"},
			wantKind:   KindRateLimited,
			wantStatus: 429,
		},
		{
			name:       "unauthorized",
			err:        &coingecko.APIError{StatusCode: http.StatusUnauthorized},
			wantKind:   KindUnauthorized,
			wantStatus: 401,
			wantMsg:    "CoinGecko rejected the request (401/403). You may need a Demo/Pro API key.",
		},
		{
			name:       "forbidden",
			err:        &coingecko.APIError{StatusCode: http.StatusForbidden},
			wantKind:   KindUnauthorized,
			wantStatus: 403,
		},
		{
			name:       "upstream",
			err:        &coingecko.APIError{StatusCode: http.StatusBadGateway, Message: "upstream down"},
			wantKind:   KindUpstream,
			wantStatus: 502,
			wantMsg:    "HTTP 502: upstream down",
		},
		{
			name:       "upstream without message",
			err:        &coingecko.APIError{StatusCode: http.StatusNotFound},
			wantKind:   KindUpstream,
			wantStatus: 404,
			wantMsg:    "HTTP 404: Not Found",
		},
		{
			name:       "undecodable body",
			err:        fmt.Errorf("%w: %w", coingecko.ErrInvalidResponse, errors.New("invalid character")),
			wantKind:   KindUpstream,
			wantStatus: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)

			var fe *FetchError
			require.True(t, errors.As(got, &fe))
			assert.Equal(t, tt.wantKind, fe.Kind)
			assert.Equal(t, tt.wantStatus, fe.Status)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, fe.Error())
			}
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_RateLimitMessageMentionsKey(t *testing.T) {
	got := classify(&coingecko.APIError{StatusCode: http.StatusTooManyRequests})
	assert.Contains(t, got.Error(), "429")
	assert.Contains(t, got.Error(), "API key")
}

func TestClassify_PassesContextErrors(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.Equal(t, context.Canceled, classify(context.Canceled))

	wrapped := fmt.Errorf("failed to execute request: %w", context.DeadlineExceeded)
	assert.Equal(t, wrapped, classify(wrapped))
}

func TestUnsupportedCategoryError(t *testing.T) {
	err := UnsupportedCategoryError(models.CategoryRealEstate)
	assert.Equal(t, KindUnsupportedCategory, err.Kind)
	assert.Equal(t, `No data source wired up yet for category "real-estate".`, err.Error())
}
