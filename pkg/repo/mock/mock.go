package mock

import (
	"net/http"
	"net/http/httptest"
	"path"
	"runtime"
	"testing"
	"time"
)

// GetMockData serves the fixture exports of this directory. /poll answers with
// the url of repo-ok.json.
func GetMockData(tb testing.TB) (*httptest.Server, string) {
	tb.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(time.Millisecond * 50)
		if req.URL.Path == "/poll" {
			_, _ = w.Write([]byte(server.URL + "/repo-ok.json"))
			return
		}
		http.ServeFile(w, req, Path(req.URL.Path[1:]))
	}))
	tb.Cleanup(server.Close)

	return server, tb.TempDir()
}

// Path absolute path of a fixture file
func Path(name string) string {
	_, filename, _, _ := runtime.Caller(0)
	return path.Join(path.Dir(filename), name)
}
