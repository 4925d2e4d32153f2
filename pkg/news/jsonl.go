package news

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSONL writes one JSON object per article, each followed by a newline.
// Non-ASCII text is written as-is.
func WriteJSONL(w io.Writer, articles []Article) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, a := range articles {
		// Encode appends the newline.
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encode article %s: %w", a.ID, err)
		}
	}
	return bw.Flush()
}

// ReadJSONL reads articles written by WriteJSONL. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]Article, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var out []Article
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var a Article
		if err := json.Unmarshal(b, &a); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, a)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
