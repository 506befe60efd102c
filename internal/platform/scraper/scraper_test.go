package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

func testScraper(t *testing.T) Scraper {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	s, err := New(log)
	if err != nil {
		t.Fatalf("init scraper: %v", err)
	}
	return s
}

func TestScrapeExtractsTitleAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Remote Go Jobs</title></head><body>
			<nav>Home About Contact</nav>
			<header>Site banner</header>
			<article><h1>Openings</h1><p>Backend engineer, remote, Go and Postgres.</p></article>
			<aside>Newsletter signup</aside>
			<footer>Copyright</footer>
			<script>console.log("noise")</script>
		</body></html>`))
	}))
	defer srv.Close()

	got := testScraper(t).Scrape(context.Background(), srv.URL)
	if !got.Success {
		t.Fatalf("scrape failed: %s", got.Error)
	}
	if got.Title != "Remote Go Jobs" {
		t.Fatalf("title %q", got.Title)
	}
	if !strings.Contains(got.Content, "Backend engineer, remote, Go and Postgres.") {
		t.Fatalf("content missing article text: %q", got.Content)
	}
	for _, noise := range []string{"Home About Contact", "Site banner", "Newsletter signup", "Copyright", "console.log"} {
		if strings.Contains(got.Content, noise) {
			t.Fatalf("content contains boilerplate %q", noise)
		}
	}
	if got.WordCount == 0 {
		t.Fatal("expected non-zero word count")
	}
}

func TestScrapeTruncatesLongContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>" + strings.Repeat("word ", 40_000) + "</p></body></html>"))
	}))
	defer srv.Close()

	got := testScraper(t).Scrape(context.Background(), srv.URL)
	if !got.Success {
		t.Fatalf("scrape failed: %s", got.Error)
	}
	if len(got.Content) > maxContentChars+len(truncationSuffix) {
		t.Fatalf("content not truncated: %d chars", len(got.Content))
	}
	if !strings.HasSuffix(got.Content, truncationSuffix) {
		t.Fatal("expected truncation marker")
	}
}

func TestScrapeReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	got := testScraper(t).Scrape(context.Background(), srv.URL)
	if got.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(got.Error, "status 404") {
		t.Fatalf("unexpected error %q", got.Error)
	}
}

func TestScrapeReportsConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	got := testScraper(t).Scrape(context.Background(), srv.URL)
	if got.Success {
		t.Fatal("expected failure")
	}
	if got.Error == "" {
		t.Fatal("expected error message")
	}
}
