package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradebid/tradebid/internal/geocode"
)

const featureBody = `{
	"features": [
		{"place_name": "12 High St, Melbourne", "geometry": {"coordinates": [144.9631, -37.8136]}},
		{"place_name": "12 High St, Sydney", "geometry": {"coordinates": [151.2093, -33.8688]}}
	]
}`

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestSearch(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, featureBody)
	client := geocode.NewHTTPClient(srv.URL, "test-token", "au", 5*time.Second)

	results, err := client.Search(context.Background(), "12 High St")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "12 High St, Melbourne", results[0].Address)
	assert.InDelta(t, 144.9631, results[0].Longitude, 0.0001)
	assert.InDelta(t, -37.8136, results[0].Latitude, 0.0001)

	assert.Contains(t, captured.URL.Path, "/geocoding/v5/mapbox.places/")
	assert.Equal(t, "test-token", captured.URL.Query().Get("access_token"))
	assert.Equal(t, "au", captured.URL.Query().Get("country"))
}

func TestSearch_NoCountryFilter(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, featureBody)
	client := geocode.NewHTTPClient(srv.URL, "test-token", "", 5*time.Second)

	_, err := client.Search(context.Background(), "12 High St")
	require.NoError(t, err)
	assert.Empty(t, captured.URL.Query().Get("country"))
}

func TestSearch_NoResults(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"features": []}`)
	client := geocode.NewHTTPClient(srv.URL, "test-token", "au", 5*time.Second)

	_, err := client.Search(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, geocode.ErrAddressNotFound)
}

func TestSearch_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, "")
	client := geocode.NewHTTPClient(srv.URL, "test-token", "au", 5*time.Second)

	_, err := client.Search(context.Background(), "12 High St")
	assert.ErrorIs(t, err, geocode.ErrQueryFailed)
}

func TestSearch_Unreachable(t *testing.T) {
	client := geocode.NewHTTPClient("http://127.0.0.1:1", "test-token", "au", time.Second)

	_, err := client.Search(context.Background(), "12 High St")
	assert.ErrorIs(t, err, geocode.ErrUnreachable)
}

func TestForward_ReturnsBestMatch(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, featureBody)
	client := geocode.NewHTTPClient(srv.URL, "test-token", "au", 5*time.Second)

	result, err := client.Forward(context.Background(), "12 High St")
	require.NoError(t, err)
	assert.Equal(t, "12 High St, Melbourne", result.Address)
}

func TestReverse(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, featureBody)
	client := geocode.NewHTTPClient(srv.URL, "test-token", "au", 5*time.Second)

	name, err := client.Reverse(context.Background(), 144.9631, -37.8136)
	require.NoError(t, err)
	assert.Equal(t, "12 High St, Melbourne", name)
	assert.Contains(t, captured.URL.Path, "144.963100,-37.813600")
}
