package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/presence"
	"github.com/cwrk-planet/relay-service/internal/repository/inmem"
	"github.com/cwrk-planet/relay-service/internal/service"
	"github.com/cwrk-planet/relay-service/internal/transport/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *inmem.PendingRepo) {
	t.Helper()
	repo := inmem.NewPendingRepo()
	registry := presence.NewRegistry()
	relaySvc := service.NewRelayService(repo, registry)
	wsServer := ws.NewServer(registry, relaySvc)
	router := NewRouter(NewHandler(relaySvc), wsServer)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestSendMessage_Validation(t *testing.T) {
	srv, repo := newTestServer(t)

	resp := postJSON(t, srv.URL+"/messages", SendMessageRequest{From: "alice"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, repo.Len())
}

func TestSendMessage_BuffersForOfflineRecipient(t *testing.T) {
	srv, repo := newTestServer(t)

	resp := postJSON(t, srv.URL+"/messages", SendMessageRequest{
		From:    "alice",
		To:      "bob",
		Payload: json.RawMessage(`{"cipher":"abc"}`),
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ok OkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ok))
	assert.True(t, ok.Ok)
	assert.Equal(t, 1, repo.Len())
}

func TestGetPending_FetchAndClear(t *testing.T) {
	srv, repo := newTestServer(t)
	conv := domain.ConversationID("alice", "bob")

	resp := postJSON(t, srv.URL+"/messages", SendMessageRequest{
		From:    "alice",
		To:      "bob",
		Payload: json.RawMessage(`{"cipher":"abc"}`),
	})
	resp.Body.Close()
	require.Equal(t, 1, repo.Len())

	// отсутствие параметров — ошибка валидации
	for _, q := range []string{"", "?me=bob", "?room=" + conv} {
		r, err := http.Get(srv.URL + "/messages/pending" + q)
		require.NoError(t, err)
		r.Body.Close()
		assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	}

	r, err := http.Get(srv.URL + "/messages/pending?me=bob&room=" + conv)
	require.NoError(t, err)
	defer r.Body.Close()
	require.Equal(t, http.StatusOK, r.StatusCode)

	var items []PendingItem
	require.NoError(t, json.NewDecoder(r.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, conv, items[0].ConversationID)
	assert.JSONEq(t, `{"cipher":"abc"}`, string(items[0].Payload))
	assert.NotZero(t, items[0].Timestamp)

	// очередь очищена атомарно с выборкой
	assert.Equal(t, 0, repo.Len())

	r2, err := http.Get(srv.URL + "/messages/pending?me=bob&room=" + conv)
	require.NoError(t, err)
	defer r2.Body.Close()
	var empty []PendingItem
	require.NoError(t, json.NewDecoder(r2.Body).Decode(&empty))
	assert.Empty(t, empty)
}

func TestGetPendingCounts(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, req := range []SendMessageRequest{
		{From: "alice", To: "bob", Payload: json.RawMessage(`"1"`)},
		{From: "alice", To: "bob", Payload: json.RawMessage(`"2"`)},
		{From: "carol", To: "bob", Payload: json.RawMessage(`"3"`)},
	} {
		resp := postJSON(t, srv.URL+"/messages", req)
		resp.Body.Close()
	}

	r, err := http.Get(srv.URL + "/messages/pending-counts?me=bob")
	require.NoError(t, err)
	defer r.Body.Close()
	require.Equal(t, http.StatusOK, r.StatusCode)

	var counts map[string]int
	require.NoError(t, json.NewDecoder(r.Body).Decode(&counts))
	assert.Equal(t, map[string]int{"alice": 2, "carol": 1}, counts)

	rb, err := http.Get(srv.URL + "/messages/pending-counts")
	require.NoError(t, err)
	rb.Body.Close()
	assert.Equal(t, http.StatusBadRequest, rb.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	r, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
}
