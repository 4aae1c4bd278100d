package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

func TestFetchProgress_ParsesEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/progress", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"totalXP": 420,
				"hearts": 3,
				"maxHearts": 5,
				"streak": 7,
				"lastReadDate": "2026-03-09",
				"wrongQuestions": [{"id": "s1_q1", "surveyId": "s1", "questionId": "q1", "wrongCount": 2}]
			},
			"syncTime": "2026-03-10T12:00:00Z"
		}`))
	}))
	defer ts.Close()

	client := NewClient(DefaultClientConfig(ts.URL))
	payload, err := client.FetchProgress(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, 420, payload.TotalXP)
	assert.Equal(t, 3, payload.Hearts)
	assert.Equal(t, "2026-03-09", payload.LastActivityDate)
	require.Len(t, payload.WrongQuestions, 1)
	assert.Equal(t, "s1_q1", payload.WrongQuestions[0].ID)
}

func TestFetchProgress_APIErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "maintenance"}`))
	}))
	defer ts.Close()

	client := NewClient(DefaultClientConfig(ts.URL))
	_, err := client.FetchProgress(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestDoRequest_MapsUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewClient(DefaultClientConfig(ts.URL))
	_, err := client.FetchProgress(context.Background(), "stale")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestSyncProgress_SendsClientProgress(t *testing.T) {
	var body map[string]json.RawMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/progress/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"success": true, "data": {"totalXP": 999}}`))
	}))
	defer ts.Close()

	client := NewClient(DefaultClientConfig(ts.URL))
	merged, err := client.SyncProgress(context.Background(), "tok", payloadWithXP(10), "2026-03-09T00:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, body, "clientProgress")
	assert.Contains(t, body, "lastSyncTime")
	// The server answer is authoritative.
	assert.Equal(t, 999, merged.TotalXP)
}

func TestSaveProgress_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(DefaultClientConfig(ts.URL))
	err := client.SaveProgress(context.Background(), "tok", payloadWithXP(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
