package news

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/newsgraph/internal/util"
)

// UnknownAuthor is stored when the API reports no author.
const UnknownAuthor = "Unknown"

// Article is the flat, normalized record persisted by the fetch stage.
type Article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// RawSource is the source object of a NewsAPI article.
type RawSource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// RawArticle mirrors one entry of the NewsAPI articles array. Nullable
// fields are pointers so a JSON null can be told apart from an empty string.
type RawArticle struct {
	Source      RawSource `json:"source"`
	Author      *string   `json:"author"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"publishedAt"`
	Content     *string   `json:"content"`
}

// Normalize turns the i-th raw article of a category into an Article with id
// "<prefix>_<i>". A null or blank author becomes "Unknown". Content falls
// back to the description, then to the title up to the first " - "
// (headlines carry the publisher after that separator).
func Normalize(prefix string, i int, raw RawArticle) Article {
	title := util.SanitizeText(raw.Title)

	author := UnknownAuthor
	if raw.Author != nil && strings.TrimSpace(*raw.Author) != "" {
		author = util.SanitizeText(*raw.Author)
	}

	var content string
	if raw.Description != nil && strings.TrimSpace(*raw.Description) != "" {
		content = util.SanitizeText(*raw.Description)
	} else {
		content = headline(title)
	}

	return Article{
		ID:      fmt.Sprintf("%s_%d", prefix, i),
		Title:   title,
		Source:  util.SanitizeText(raw.Source.Name),
		Author:  author,
		Date:    raw.PublishedAt,
		Content: content,
	}
}

func headline(title string) string {
	if i := strings.Index(title, " - "); i >= 0 {
		return title[:i]
	}
	return title
}
