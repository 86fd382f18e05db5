package gateway_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/draft/engine"
	"github.com/mixfield/songdraft/go/internal/draft/gateway"
	"github.com/mixfield/songdraft/go/internal/draft/notify"
	"github.com/mixfield/songdraft/go/internal/draft/store"
	"github.com/mixfield/songdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	eng := engine.New(store.NewMemoryStore(), notify.NewBroker())
	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	api := gateway.NewAPI(eng, manager)

	mux := http.NewServeMux()
	api.Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Code
}

func createTestGroup(t *testing.T, server *httptest.Server, participants int) models.Group {
	t.Helper()

	ids := make([]string, participants)
	for i := range ids {
		ids[i] = uuid.New().String()
	}
	resp := postJSON(t, server.URL+"/api/groups", map[string]any{
		"name":              "api test",
		"participant_ids":   ids,
		"rounds":            1,
		"time_per_pick_sec": 30,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var group models.Group
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&group))
	return group
}

func TestCreateAndStartDraft(t *testing.T) {
	server := newTestServer(t)
	group := createTestGroup(t, server, 2)

	resp := postJSON(t, fmt.Sprintf("%s/api/groups/%s/start", server.URL, group.ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(fmt.Sprintf("%s/api/groups/%s/state", server.URL, group.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot engine.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, models.DraftStatusInProgress, snapshot.State.Status)
	require.NotNil(t, snapshot.NextParticipantID)
	assert.Equal(t, group.ParticipantIDs[0], *snapshot.NextParticipantID)
}

func TestStartTwiceIsConflict(t *testing.T) {
	server := newTestServer(t)
	group := createTestGroup(t, server, 2)
	url := fmt.Sprintf("%s/api/groups/%s/start", server.URL, group.ID)

	resp := postJSON(t, url, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, url, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_started", decodeError(t, resp))
}

func TestClaimErrorCodesAreDistinct(t *testing.T) {
	server := newTestServer(t)
	group := createTestGroup(t, server, 2)
	claimURL := fmt.Sprintf("%s/api/groups/%s/claims", server.URL, group.ID)

	// Before start
	resp := postJSON(t, claimURL, map[string]string{
		"participant_id": group.ParticipantIDs[0].String(),
		"song_id":        "s1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "not_started", decodeError(t, resp))

	resp = postJSON(t, fmt.Sprintf("%s/api/groups/%s/start", server.URL, group.ID), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Out of turn
	resp = postJSON(t, claimURL, map[string]string{
		"participant_id": group.ParticipantIDs[1].String(),
		"song_id":        "s1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "wrong_turn", decodeError(t, resp))

	// Valid first pick
	resp = postJSON(t, claimURL, map[string]string{
		"participant_id": group.ParticipantIDs[0].String(),
		"song_id":        "s1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var claim models.Claim
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&claim))
	resp.Body.Close()
	assert.Equal(t, 1, claim.OverallPick)

	// Same song again is a different failure than wrong turn
	resp = postJSON(t, claimURL, map[string]string{
		"participant_id": group.ParticipantIDs[1].String(),
		"song_id":        "s1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "song_unavailable", decodeError(t, resp))
}

func TestUnknownGroupIsNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(fmt.Sprintf("%s/api/groups/%s/state", server.URL, uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeError(t, resp))
}

func TestMalformedRequests(t *testing.T) {
	server := newTestServer(t)
	group := createTestGroup(t, server, 2)

	resp, err := http.Get(server.URL + "/api/groups/not-a-uuid/state")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeError(t, resp))

	resp = postJSON(t, fmt.Sprintf("%s/api/groups/%s/claims", server.URL, group.ID), map[string]string{
		"participant_id": "nope",
		"song_id":        "s1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeError(t, resp))

	resp = postJSON(t, server.URL+"/api/groups", map[string]any{
		"name":            "empty",
		"participant_ids": []string{},
		"rounds":          1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeError(t, resp))
}
