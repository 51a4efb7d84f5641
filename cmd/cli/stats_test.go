package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akeren/signal-waitlist/domain/waitlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeWaitlist_GroupsCitiesIgnoringCase(t *testing.T) {
	list := &waitlist.ListWaitlistResponse{
		Message: "Local JSON storage",
		Count:   4,
		Entries: []waitlist.WaitlistEntryResponse{
			{City: "new york", Platform: "ios"},
			{City: "New  York ", Platform: "both"},
			{City: "NEW YORK", Platform: "both"},
			{City: "Lagos", Platform: "android"},
		},
	}

	stats := summarizeWaitlist(list)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, []countRow{{"ios", 1}, {"android", 1}, {"both", 2}}, stats.ByPlatform)
	require.Len(t, stats.ByCity, 2)
	assert.Equal(t, countRow{"New York", 3}, stats.ByCity[0])
	assert.Equal(t, countRow{"Lagos", 1}, stats.ByCity[1])
}

func TestFetchWaitlist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"message":"Database storage","count":1,"entries":[{"id":"a","name":"Ada","email":"ada@example.com","city":"Lagos","platform":"ios","createdAt":"2026-01-01T00:00:00.000Z"}]}`))
	}))
	defer srv.Close()

	list, err := fetchWaitlist(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Database storage", list.Message)
	require.Len(t, list.Entries, 1)

	var out bytes.Buffer
	printStats(&out, summarizeWaitlist(list))
	assert.Contains(t, out.String(), "Storage: Database storage")
	assert.Contains(t, out.String(), "Total entries: 1")
	assert.Contains(t, out.String(), "Lagos")
}

func TestFetchWaitlist_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fetchWaitlist(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
}

func TestWaitlistEndpoint(t *testing.T) {
	t.Setenv("WAITLIST_ENDPOINT", "")
	assert.Equal(t, defaultEndpoint, waitlistEndpoint(nil))

	t.Setenv("WAITLIST_ENDPOINT", "https://signal.example/api/waitlist")
	assert.Equal(t, "https://signal.example/api/waitlist", waitlistEndpoint(nil))
	assert.Equal(t, "http://other/api/waitlist", waitlistEndpoint([]string{"http://other/api/waitlist"}))
}
