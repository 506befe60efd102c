package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

const (
	maxContentChars  = 100_000
	truncationSuffix = "\n\n[Content truncated...]"
	maxBodyBytes     = 8 << 20
)

// Result is the outcome of scraping one URL. Failures are carried as a
// value so background jobs can record them instead of aborting.
type Result struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type Scraper interface {
	Scrape(ctx context.Context, url string) *Result
}

type scraper struct {
	log        *logger.Logger
	httpClient *http.Client
}

func New(log *logger.Logger) (Scraper, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("SCRAPER_TIMEOUT_SECONDS")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	return &scraper{
		log:        log.With("service", "Scraper"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (s *scraper) Scrape(ctx context.Context, url string) *Result {
	out := &Result{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		out.Error = fmt.Sprintf("invalid url: %v", err)
		return out
	}
	req.Header.Set("User-Agent", "findmeajob-research/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		out.Error = fmt.Sprintf("fetch failed: %v", err)
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Error = fmt.Sprintf("fetch failed: status %d", resp.StatusCode)
		return out
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		out.Error = fmt.Sprintf("read body: %v", err)
		return out
	}

	title, text := extractHTML(string(raw))
	if strings.TrimSpace(text) == "" {
		out.Error = "no readable content"
		return out
	}
	if len(text) > maxContentChars {
		text = text[:maxContentChars] + truncationSuffix
	}

	out.Title = title
	out.Content = text
	out.WordCount = len(strings.Fields(text))
	out.Success = true
	return out
}

// skipElements are containers whose text is boilerplate, not content.
var skipElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Head:     true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
}

// extractHTML parses a page and returns (title, readable text).
func extractHTML(raw string) (string, string) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", stripTags(raw)
	}

	title := findTitle(doc)

	var content strings.Builder
	extractText(doc, &content)
	return title, cleanWhitespace(content.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func extractText(n *html.Node, w *strings.Builder) {
	if n.Type == html.ElementNode {
		if skipElements[n.DataAtom] {
			return
		}
		if isBlockElement(n.DataAtom) && w.Len() > 0 {
			w.WriteString("\n\n")
		}
	}
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			w.WriteString(text)
			w.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, w)
	}
	if n.Type == html.ElementNode && (n.DataAtom == atom.Br || n.DataAtom == atom.Li) {
		w.WriteString("\n")
	}
}

func isBlockElement(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Ul, atom.Ol, atom.Table,
		atom.Tr, atom.Dl, atom.Dd, atom.Dt, atom.Figcaption, atom.Figure,
		atom.Details, atom.Summary, atom.Hr:
		return true
	}
	return false
}

func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var cleaned []string
	prevEmpty := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if prevEmpty {
				continue
			}
			prevEmpty = true
		} else {
			prevEmpty = false
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func stripTags(s string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return cleanWhitespace(b.String())
		case html.TextToken:
			b.WriteString(tokenizer.Token().Data)
			b.WriteString(" ")
		}
	}
}
