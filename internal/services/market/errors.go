package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bobmcallan/marketview/internal/clients/coingecko"
	"github.com/bobmcallan/marketview/internal/models"
)

var (
	// ErrAssetNotFound is returned when an asset ID is not in the catalog
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidRange is returned for values outside the TimeRange enum
	ErrInvalidRange = errors.New("invalid time range")
)

// FetchErrorKind classifies fetch failures for display.
type FetchErrorKind string

const (
	KindNetwork             FetchErrorKind = "network_error"
	KindRateLimited         FetchErrorKind = "rate_limited"
	KindUnauthorized        FetchErrorKind = "unauthorized"
	KindUpstream            FetchErrorKind = "upstream_error"
	KindUnsupportedCategory FetchErrorKind = "unsupported_category"
)

// FetchError is a classified fetch failure. Error() is the user-readable message.
type FetchError struct {
	Kind    FetchErrorKind
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NetworkError builds the error for a request that produced no response.
func NetworkError(err error) *FetchError {
	return &FetchError{
		Kind:    KindNetwork,
		Status:  0,
		Message: "Network error (status 0). Usually CORS, a blocked request, or you are offline.",
		Err:     err,
	}
}

// RateLimitedError builds the error for HTTP 429.
func RateLimitedError(err error) *FetchError {
	return &FetchError{
		Kind:    KindRateLimited,
		Status:  http.StatusTooManyRequests,
		Message: "CoinGecko rate limit hit (429). Add a Demo API key in settings or wait a minute and retry.",
		Err:     err,
	}
}

// UnauthorizedError builds the error for HTTP 401/403.
func UnauthorizedError(status int, err error) *FetchError {
	return &FetchError{
		Kind:    KindUnauthorized,
		Status:  status,
		Message: "CoinGecko rejected the request (401/403). You may need a Demo/Pro API key.",
		Err:     err,
	}
}

// UpstreamError builds the error for any other non-success status.
func UpstreamError(status int, message string, err error) *FetchError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &FetchError{
		Kind:    KindUpstream,
		Status:  status,
		Message: fmt.Sprintf("HTTP %d: %s", status, message),
		Err:     err,
	}
}

// UnsupportedCategoryError builds the error for assets without a wired data source.
func UnsupportedCategoryError(category models.AssetCategory) *FetchError {
	return &FetchError{
		Kind:    KindUnsupportedCategory,
		Message: fmt.Sprintf("No data source wired up yet for category %q.", string(category)),
	}
}

// classify maps a client error onto the FetchError taxonomy.
// Context errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	var apiErr *coingecko.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 0:
			return NetworkError(err)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return RateLimitedError(err)
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return UnauthorizedError(apiErr.StatusCode, err)
		default:
			return UpstreamError(apiErr.StatusCode, apiErr.Message, err)
		}
	}

	if errors.Is(err, coingecko.ErrInvalidResponse) {
		return UpstreamError(http.StatusOK, "unexpected response body", err)
	}
	return NetworkError(err)
}
