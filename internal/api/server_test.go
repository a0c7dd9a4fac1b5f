package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panicconf/internal/archive"
	"panicconf/internal/core"
	blobmemory "panicconf/internal/infra/blob/memory"
	"panicconf/internal/infra/persistence/memory"
	redisinfra "panicconf/internal/infra/redis"
	"panicconf/pkg/domain"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	store := memory.NewStore(core.NewDefaultRulesEngine())
	service := core.NewService(store, core.WithLogger(zap.NewNop()))
	return New(service, opts...)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestExpvarEndpoint(t *testing.T) {
	s := newTestServer(t, WithExpvar())
	rec := doJSON(t, s, http.MethodGet, "/debug/vars", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))

	// Without the option the page stays unmounted.
	s = newTestServer(t)
	rec = doJSON(t, s, http.MethodGet, "/debug/vars", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChainCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/chains", domain.Chain{Name: "cosmoshub", Kind: domain.ChainCosmos})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[domain.Chain](t, rec)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	rec = doJSON(t, s, http.MethodGet, "/v1/chains/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cosmoshub", decodeData[domain.Chain](t, rec).Name)

	// PUT fully overwrites the record at the path id.
	created.Name = "cosmoshub-4"
	rec = doJSON(t, s, http.MethodPut, "/v1/chains/"+created.ID, created)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cosmoshub-4", decodeData[domain.Chain](t, rec).Name)

	rec = doJSON(t, s, http.MethodGet, "/v1/chains", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]domain.Chain](t, rec), 1)

	rec = doJSON(t, s, http.MethodDelete, "/v1/chains/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deletes are idempotent.
	rec = doJSON(t, s, http.MethodDelete, "/v1/chains/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/v1/chains/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationFailureReturns422WithFields(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/chains", domain.Chain{Name: "bad[name]", Kind: domain.ChainCosmos})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "name")
}

func TestDanglingChainReferenceReturns409(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/nodes", domain.Node{
		ChainID: "missing", Name: "sentry-1", Kind: domain.NodeCosmos,
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var resp struct {
		Violations []violationPayload `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Violations)
	assert.Equal(t, "reference_integrity", resp.Violations[0].Rule)
}

func TestDuplicateNameWarnsButCreates(t *testing.T) {
	s := newTestServer(t)

	// Second chain imports with the same name via snapshot import, then a
	// put touching the store surfaces the warning.
	snapshot := domain.Snapshot{
		Chains: map[string]domain.Chain{
			"c1": {Base: domain.Base{ID: "c1"}, Name: "dup", Kind: domain.ChainCosmos},
			"c2": {Base: domain.Base{ID: "c2"}, Name: "dup", Kind: domain.ChainCosmos},
		},
	}
	rec := doJSON(t, s, http.MethodPost, "/v1/config/import", snapshot)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/v1/systems", domain.System{
		ChainID: "c1", Name: "host-1", ExporterURL: "http://host-1:9100/metrics", Monitor: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Warnings []violationPayload `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Warnings)
	assert.Equal(t, "duplicate_name", resp.Warnings[0].Rule)
}

func TestChannelRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/channels/telegram", domain.TelegramChannel{
		Name: "ops", BotToken: "123:abc", ChatID: "-100", Alerts: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[domain.TelegramChannel](t, rec)

	rec = doJSON(t, s, http.MethodGet, "/v1/channels/telegram/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", decodeData[domain.TelegramChannel](t, rec).Name)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/chains", domain.Chain{Name: "polkadot", Kind: domain.ChainSubstrate})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/v1/config/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Len(t, snapshot.Chains, 1)

	other := newTestServer(t)
	rec = doJSON(t, other, http.MethodPost, "/v1/config/import", snapshot)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, other, http.MethodGet, "/v1/chains", nil)
	assert.Len(t, decodeData[[]domain.Chain](t, rec), 1)
}

func TestArchiveCreateListRestore(t *testing.T) {
	archiver := archive.New(blobmemory.New(), zap.NewNop())
	s := newTestServer(t, WithArchiver(archiver))

	rec := doJSON(t, s, http.MethodPost, "/v1/chains", domain.Chain{Name: "kusama", Kind: domain.ChainSubstrate})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/v1/config/archives", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decodeData[archive.Entry](t, rec)
	require.NotEmpty(t, entry.Key)

	rec = doJSON(t, s, http.MethodGet, "/v1/config/archives", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]archive.Entry](t, rec), 1)

	// Wipe the store, then restore from the archive.
	rec = doJSON(t, s, http.MethodPost, "/v1/config/import", domain.Snapshot{})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/v1/chains", nil)
	require.Empty(t, decodeData[[]domain.Chain](t, rec))

	rec = doJSON(t, s, http.MethodPost, "/v1/config/archives/restore", restoreRequest{Key: entry.Key})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/v1/chains", nil)
	chains := decodeData[[]domain.Chain](t, rec)
	require.Len(t, chains, 1)
	assert.Equal(t, "kusama", chains[0].Name)
}

func TestMuteRoutes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisinfra.NewClient(redisinfra.Options{Addr: mr.Addr(), Namespace: "test"}, zap.NewNop())
	require.NoError(t, client.Connect(t.Context()))
	t.Cleanup(func() { _ = client.Disconnect() })

	s := newTestServer(t, WithRedis(client))

	rec := doJSON(t, s, http.MethodPost, "/v1/chains", domain.Chain{Name: "celestia", Kind: domain.ChainCosmos})
	require.Equal(t, http.StatusCreated, rec.Code)
	chain := decodeData[domain.Chain](t, rec)

	muteURL := fmt.Sprintf("/v1/chains/%s/mute", chain.ID)

	rec = doJSON(t, s, http.MethodGet, muteURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"muted":false`)

	rec = doJSON(t, s, http.MethodPost, muteURL, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, muteURL, nil)
	assert.Contains(t, rec.Body.String(), `"muted":true`)

	rec = doJSON(t, s, http.MethodDelete, muteURL, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Unknown chains 404 instead of writing stray keys.
	rec = doJSON(t, s, http.MethodPost, "/v1/chains/nope/mute", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/v1/mute", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/v1/mute", nil)
	assert.Contains(t, rec.Body.String(), `"muted":true`)
	rec = doJSON(t, s, http.MethodDelete, "/v1/mute", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBadJSONReturns400(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/chains", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
