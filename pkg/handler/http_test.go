package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spursup/feedserver/pkg/collector"
	"github.com/spursup/feedserver/pkg/collector/mock"
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRepo(t *testing.T, start bool) *repo.Repo {
	t.Helper()
	var (
		l      = zaptest.NewLogger(t)
		server = mock.GetMockServer(t)
		feeds  = mock.MakeFeeds(server.URL, "feed-ok")
	)

	h, err := repo.NewHistory(l, repo.HistoryWithHistoryDir(t.TempDir()))
	require.NoError(t, err)

	c := collector.New(l, collector.WithFallbackThreshold(0))
	r := repo.New(l, feeds, c, h)
	if start {
		go r.Start(t.Context()) //nolint:errcheck
		require.Eventually(t, r.Loaded, 5*time.Second, 10*time.Millisecond)
	}
	return r
}

func newTestServer(t *testing.T, start bool, opts ...HTTPOption) (*httptest.Server, *repo.Repo) {
	t.Helper()
	r := newTestRepo(t, start)
	server := httptest.NewServer(NewHTTP(zaptest.NewLogger(t), r, opts...))
	t.Cleanup(server.Close)
	return server, r
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIndex(t *testing.T) {
	server, _ := newTestServer(t, true)

	resp, body := get(t, server.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Football Feed")
	assert.Contains(t, body, "Gamecocks open spring practice")
}

func TestIndexUnknownPath(t *testing.T) {
	server, _ := newTestServer(t, true)

	resp, _ := get(t, server.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemsJSON(t *testing.T) {
	server, _ := newTestServer(t, true)

	resp, body := get(t, server.URL+"/items.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	snapshot := &feed.Snapshot{}
	require.NoError(t, json.Unmarshal([]byte(body), snapshot))
	assert.Len(t, snapshot.Items, 3)
	assert.NotEmpty(t, snapshot.Updated)
}

func TestItemsJSONBeforeFirstCollection(t *testing.T) {
	server, _ := newTestServer(t, false)

	resp, body := get(t, server.URL+"/items.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, feed.EmptyJSON, body, "consumers always get valid json")
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, true)

	resp, body := get(t, server.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	response := &HealthResponse{}
	require.NoError(t, json.Unmarshal([]byte(body), response))
	assert.True(t, response.OK)
	require.NotNil(t, response.Updated)
	assert.NotEmpty(t, *response.Updated)
}

func TestHealthBeforeFirstCollection(t *testing.T) {
	server, _ := newTestServer(t, false)

	resp, body := get(t, server.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	response := &HealthResponse{}
	require.NoError(t, json.Unmarshal([]byte(body), response))
	assert.True(t, response.OK)
	assert.Nil(t, response.Updated)
}

func TestCollect(t *testing.T) {
	server, _ := newTestServer(t, true)

	resp, err := http.Post(server.URL+"/collect", "", nil) //nolint:noctx
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	response := &CollectResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(response))
	assert.True(t, response.OK)
	assert.Equal(t, 3, response.Count)
	assert.NotEmpty(t, response.Updated)
}

func TestCollectMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t, true)

	resp, _ := get(t, server.URL+"/collect")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCollectWithToken(t *testing.T) {
	server, _ := newTestServer(t, true, WithCollectToken("secret"))

	// missing token
	resp, err := http.Post(server.URL+"/collect", "", nil) //nolint:noctx
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// wrong token
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, server.URL+"/collect", nil)
	require.NoError(t, err)
	req.Header.Set(CollectTokenHeader, "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// correct token
	req, err = http.NewRequestWithContext(t.Context(), http.MethodPost, server.URL+"/collect", nil)
	require.NoError(t, err)
	req.Header.Set(CollectTokenHeader, "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCollectRejected(t *testing.T) {
	// the repo's update routine is not running, so the trigger is rejected
	server, _ := newTestServer(t, false)

	resp, err := http.Post(server.URL+"/collect", "", nil) //nolint:noctx
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	response := &ErrorResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(response))
	assert.Contains(t, response.Error, "in progress")
}

func TestFightSong(t *testing.T) {
	server, _ := newTestServer(t, true)

	resp, body := get(t, server.URL+"/fight-song")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<audio")
	assert.Contains(t, body, "/static/fight-song.mp3")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0600))

	server, _ := newTestServer(t, true, WithStaticDir(dir))

	resp, body := get(t, server.URL+"/static/style.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "body{}", body)
}

func TestStaticFilesDisabled(t *testing.T) {
	server, _ := newTestServer(t, true, WithStaticDir(""))

	resp, _ := get(t, server.URL+"/static/style.css")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
