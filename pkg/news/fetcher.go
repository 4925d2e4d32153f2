package news

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
)

// Category pairs a NewsAPI category with the id prefix of its articles.
type Category struct {
	Name   string
	Prefix string
}

// DefaultCategories are fetched in this order; ids depend on it.
var DefaultCategories = []Category{
	{Name: "technology", Prefix: "tech"},
	{Name: "science", Prefix: "sci"},
}

// HeadlineSource is the part of Client the fetcher needs.
type HeadlineSource interface {
	TopHeadlines(ctx context.Context, country, category, language string) ([]RawArticle, error)
}

// TextLoader extracts readable text from an article URL.
type TextLoader interface {
	GetText(ctx context.Context, rawURL string) (string, error)
}

// Fetcher retrieves and normalizes headlines for a fixed set of categories.
type Fetcher struct {
	Source     HeadlineSource
	Categories []Category
	Country    string
	Language   string

	// FullText, when set, replaces the content of articles that carry a URL
	// with the extracted page text.
	FullText TextLoader
}

// NewFetcher returns a fetcher for the default categories.
func NewFetcher(source HeadlineSource, country, language string) *Fetcher {
	return &Fetcher{
		Source:     source,
		Categories: DefaultCategories,
		Country:    country,
		Language:   language,
	}
}

// Fetch returns the normalized articles of every category, categories in
// order, each numbered from 0. The first API failure aborts the fetch.
func (f *Fetcher) Fetch(ctx context.Context) ([]Article, error) {
	var out []Article
	for _, cat := range f.Categories {
		raw, err := f.Source.TopHeadlines(ctx, f.Country, cat.Name, f.Language)
		if err != nil {
			return nil, fmt.Errorf("fetch %s headlines: %w", cat.Name, err)
		}
		logger.Info("[Fetch] Retrieved headlines", "category", cat.Name, "count", len(raw))

		for i, r := range raw {
			a := Normalize(cat.Prefix, i, r)
			if f.FullText != nil && r.URL != "" {
				text, err := f.FullText.GetText(ctx, r.URL)
				if err != nil {
					logger.Debug("[Fetch] Keeping headline content", "id", a.ID, "url", r.URL, "err", err)
				} else {
					a.Content = text
				}
			}
			out = append(out, a)
		}
	}
	logger.Info("[Fetch] Number of articles", "count", len(out))
	return out, nil
}
