package retrieval_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

func siteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><style>body{color:red}</style><script>var x = 1;</script></head>
<body><h1>Acme &amp; Co</h1><p>Acme launched a new battery line.</p>
<img src="/img/battery.png"><a href="/news">News</a><a href="/about#team">About</a>
<a href="https://elsewhere.example/page">Offsite</a><a href="mailto:press@acme.example">Mail</a></body></html>`)
	})
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<p>Quarterly news</p><a href="/news/deep">Deeper</a>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<p>About Acme</p>`)
	})
	mux.HandleFunc("/news/deep", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("depth 1 crawl must not reach /news/deep")
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "  plain body  ")
	})
	mux.HandleFunc("/binary", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDirectExtract(t *testing.T) {
	srv := siteServer(t)
	client := retrieval.NewDirectClient(retrieval.WithHTTPClient(srv.Client()))

	pages, err := client.Extract(context.Background(), []string{srv.URL + "/", srv.URL + "/missing", srv.URL + "/plain", srv.URL + "/binary"})
	require.NoError(t, err)
	require.Len(t, pages, 2)

	require.Equal(t, srv.URL+"/", pages[0].URL)
	require.Equal(t, "Acme & Co Acme launched a new battery line. News About Offsite Mail", pages[0].Text)
	require.Equal(t, []string{srv.URL + "/img/battery.png"}, pages[0].Images)

	require.Equal(t, "plain body", pages[1].Text)
}

func TestDirectCrawl(t *testing.T) {
	srv := siteServer(t)
	client := retrieval.NewDirectClient(retrieval.WithHTTPClient(srv.Client()))

	pages, err := client.Crawl(context.Background(), srv.URL+"/", 1, 3)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.Equal(t, srv.URL+"/news", pages[1].URL)
	require.Equal(t, srv.URL+"/about", pages[2].URL)

	pages, err = client.Crawl(context.Background(), srv.URL+"/", 1, 2)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	_, err = client.Crawl(context.Background(), srv.URL+"/missing", 1, 3)
	require.ErrorIs(t, err, retrieval.ErrUnexpectedStatus)
}

type staticSearcher []models.SearchResult

func (s staticSearcher) Search(context.Context, string, string, int) ([]models.SearchResult, error) {
	return s, nil
}

func TestDirectSearchDelegates(t *testing.T) {
	_, err := retrieval.NewDirectClient().Search(context.Background(), "q", "general", 5)
	require.ErrorIs(t, err, retrieval.ErrSearchUnavailable)

	want := staticSearcher{{URL: "https://a.example", Topic: "general", Score: 0.8}}
	got, err := retrieval.NewDirectClient(retrieval.WithSearcher(want)).Search(context.Background(), "q", "general", 5)
	require.NoError(t, err)
	require.Equal(t, []models.SearchResult(want), got)
}
