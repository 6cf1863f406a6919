package mock

import (
	"net/http"
	"net/http/httptest"
	"path"
	"runtime"
	"testing"
	"time"

	"github.com/spursup/feedserver/pkg/feed"
)

// GetMockServer serves the xml fixtures next to this file
func GetMockServer(t testing.TB) *httptest.Server {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	mockDir := path.Dir(filename)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(time.Millisecond * 10)
		http.ServeFile(w, req, path.Join(mockDir, req.URL.Path[1:]))
	}))
	t.Cleanup(server.Close)
	return server
}

// MakeFeeds builds a feed list pointing at fixtures on the mock server
func MakeFeeds(serverURL string, names ...string) []feed.Feed {
	feeds := make([]feed.Feed, 0, len(names))
	for _, name := range names {
		feeds = append(feeds, feed.Feed{
			Name: name,
			URL:  serverURL + "/" + name + ".xml",
		})
	}
	return feeds
}
