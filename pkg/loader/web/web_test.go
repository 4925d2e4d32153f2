package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html><head><title>Chipmaker unveils new GPU</title></head>
<body>
<nav>Home | World | Tech</nav>
<article>
<h1>Chipmaker unveils new GPU</h1>
<p>The company announced its next generation graphics processor on Tuesday, promising twice the performance of the previous model for machine learning workloads.</p>
<p>Analysts expect the chip to ship in volume later this year, with cloud providers among the first customers to deploy it in their data centers.</p>
<p>The processor uses a new packaging technology that stacks memory directly on top of the compute die, which reduces power consumption considerably.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestGetText_ExtractsArticle(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	l := NewLoader(0)
	text, err := l.GetText(context.Background(), srv.URL+"/gpu")
	if err != nil {
		t.Fatalf("GetText() error = %v", err)
	}
	if !strings.Contains(text, "next generation graphics processor") {
		t.Fatalf("article text missing, got %q", text)
	}

	if _, err := l.GetText(context.Background(), srv.URL+"/gpu"); err != nil {
		t.Fatalf("cached GetText() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch due to cache, got %d", hits.Load())
	}
}

func TestGetText_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := NewLoader(0).GetText(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotHTML) {
		t.Fatalf("expected ErrNotHTML, got %v", err)
	}
}

func TestGetText_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if _, err := NewLoader(0).GetText(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
