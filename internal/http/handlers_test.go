package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertarktes/movie-reservations/internal/clock"
	"github.com/robertarktes/movie-reservations/internal/idempotency"
	"github.com/robertarktes/movie-reservations/internal/observability"
	"github.com/robertarktes/movie-reservations/internal/reservation"
)

var showTime = time.Date(2025, 7, 4, 20, 0, 0, 0, time.UTC)

type api struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := observability.NewNopLogger()
	svc := reservation.New(clock.NewManual(showTime.Add(-24*time.Hour)), logger, reservation.WithMaxShowSeats(300))
	h := NewHandlers(svc, nil, logger)
	r := SetupRouter(h, logger, RouterOptions{
		Idempotency: idempotency.NewIdempotency(idempotency.NewMemoryStore(), time.Hour),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &api{t: t, server: srv}
}

func (a *api) do(method, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (a *api) seed() (movieID, showID, customerID string) {
	a.t.Helper()
	resp, movie := a.do(http.MethodPost, "/v1/movies", map[string]interface{}{
		"title": "Movie 1", "description": "Description 1", "duration_minutes": 120,
	}, nil)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)

	resp, show := a.do(http.MethodPost, "/v1/shows", map[string]interface{}{
		"movie_id": movie["id"], "starts_at": showTime.Format(time.RFC3339), "total_seats": 2,
	}, nil)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)

	resp, customer := a.do(http.MethodPost, "/v1/customers", map[string]interface{}{"name": "Customer 1"}, nil)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)

	return movie["id"].(string), show["id"].(string), customer["id"].(string)
}

func TestAPI_BookingFlow(t *testing.T) {
	a := newAPI(t)
	movieID, showID, customerID := a.seed()

	resp, booking := a.do(http.MethodPost, "/v1/bookings", map[string]interface{}{
		"movie_id": movieID, "starts_at": showTime.Format(time.RFC3339), "customer_id": customerID, "seats": 2,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "REQUESTED", booking["status"])
	assert.Equal(t, showID, booking["show_id"])
	bookingID := booking["id"].(string)

	resp, show := a.do(http.MethodGet, "/v1/shows/"+showID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, show["committed_seats"])
	assert.EqualValues(t, 0, show["remaining_seats"])

	resp, body := a.do(http.MethodPost, "/v1/bookings", map[string]interface{}{
		"show_id": showID, "customer_id": customerID, "seats": 1,
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, codeSoldOut, body["code"])

	resp, booking = a.do(http.MethodPost, "/v1/bookings/"+bookingID+"/confirm", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CONFIRMED", booking["status"])

	resp, booking = a.do(http.MethodPost, "/v1/bookings/"+bookingID+"/check-in", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CHECKED_IN", booking["status"])

	resp, body = a.do(http.MethodPost, "/v1/bookings/"+bookingID+"/confirm", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, codeInvalidTransition, body["code"])

	req, err := http.NewRequest(http.MethodGet, a.server.URL+"/v1/customers/"+customerID+"/bookings", nil)
	require.NoError(t, err)
	histResp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer histResp.Body.Close()
	var history []bookingResponse
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "CHECKED_IN", history[0].Status)
}

func TestAPI_FindShow(t *testing.T) {
	a := newAPI(t)
	movieID, showID, _ := a.seed()

	resp, show := a.do(http.MethodGet, "/v1/shows?movie_id="+movieID+"&starts_at="+showTime.Format(time.RFC3339), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, showID, show["id"])

	resp, body := a.do(http.MethodGet, "/v1/shows?movie_id="+movieID+"&starts_at="+showTime.Add(time.Hour).Format(time.RFC3339), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, codeNotFound, body["code"])

	resp, _ = a.do(http.MethodGet, "/v1/shows?movie_id=nope&starts_at=x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Errors(t *testing.T) {
	a := newAPI(t)
	_, showID, customerID := a.seed()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown booking", http.MethodGet, "/v1/bookings/" + uuid.NewString(), nil, http.StatusNotFound, codeNotFound},
		{"bad booking id", http.MethodPost, "/v1/bookings/abc/cancel", nil, http.StatusBadRequest, codeInvalidID},
		{"malformed body", http.MethodPost, "/v1/customers", map[string]interface{}{"nick": "x"}, http.StatusBadRequest, codeInvalidRequestBody},
		{"zero seats", http.MethodPost, "/v1/bookings", map[string]interface{}{"show_id": showID, "customer_id": customerID, "seats": 0}, http.StatusBadRequest, codeInvalidRequest},
		{"no target", http.MethodPost, "/v1/bookings", map[string]interface{}{"customer_id": customerID, "seats": 1}, http.StatusBadRequest, codeInvalidRequest},
		{"unknown customer", http.MethodPost, "/v1/bookings", map[string]interface{}{"show_id": showID, "customer_id": uuid.NewString(), "seats": 1}, http.StatusNotFound, codeNotFound},
		{"oversized show", http.MethodPost, "/v1/shows", map[string]interface{}{"movie_id": uuid.NewString(), "starts_at": showTime.Format(time.RFC3339), "total_seats": 301}, http.StatusBadRequest, codeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := a.do(tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestAPI_IdempotentBooking(t *testing.T) {
	a := newAPI(t)
	_, showID, customerID := a.seed()
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	req := map[string]interface{}{"show_id": showID, "customer_id": customerID, "seats": 1}

	resp, first := a.do(http.MethodPost, "/v1/bookings", req, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, second := a.do(http.MethodPost, "/v1/bookings", req, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, first["id"], second["id"])

	_, show := a.do(http.MethodGet, "/v1/shows/"+showID, nil, nil)
	assert.EqualValues(t, 1, show["committed_seats"])

	resp, body := a.do(http.MethodPost, "/v1/bookings", req, map[string]string{"Idempotency-Key": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeIdempotencyKey, body["code"])
}

func TestAPI_Health(t *testing.T) {
	a := newAPI(t)
	resp, err := a.server.Client().Get(a.server.URL + "/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
