// Package knowledge is the customs reference library the assistant grounds
// its answers in. Markdown files are split into passages at "## " headings
// and indexed in memory with bleve.
package knowledge

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

//go:embed data/*.md
var bundled embed.FS

// Passage is one retrievable section of a reference document
type Passage struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// indexed is the shape stored in bleve
type indexed struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Base is a searchable set of passages
type Base struct {
	index    bleve.Index
	passages map[string]Passage
}

// Bundled indexes the reference documents compiled into the binary
func Bundled() (*Base, error) {
	return New(bundled, "data/*.md")
}

// New indexes every markdown file in fsys matching pattern
func New(fsys fs.FS, pattern string) (*Base, error) {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge files: %w", err)
	}

	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// english stemming so "duties" finds "duty"
	text.Analyzer = en.AnalyzerName
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("content", text)
	im.DefaultMapping = doc

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge index: %w", err)
	}

	b := &Base{index: index, passages: make(map[string]Passage)}
	batch := index.NewBatch()
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for _, p := range split(path.Base(name), string(raw)) {
			b.passages[p.ID] = p
			if err := batch.Index(p.ID, indexed{Title: p.Title, Content: p.Text}); err != nil {
				index.Close()
				return nil, fmt.Errorf("failed to index %s: %w", p.ID, err)
			}
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to build knowledge index: %w", err)
	}
	return b, nil
}

// split cuts a markdown document into its "## " sections. The "# " heading
// names the source.
func split(name, doc string) []Passage {
	stem := strings.TrimSuffix(name, path.Ext(name))
	source := stem
	var (
		out   []Passage
		title string
		body  strings.Builder
	)
	flush := func() {
		if t := strings.TrimSpace(body.String()); title != "" && t != "" {
			out = append(out, Passage{
				ID:     stem + "#" + strconv.Itoa(len(out)+1),
				Source: source,
				Title:  title,
				Text:   t,
			})
		}
		body.Reset()
	}

	sc := bufio.NewScanner(strings.NewReader(doc))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			title = strings.TrimSpace(line[3:])
		case strings.HasPrefix(line, "# "):
			source = strings.TrimSpace(line[2:])
		default:
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	flush()
	return out
}

// Search returns up to k passages ranked by relevance to query
func (b *Base) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), k, 0, false)
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	out := make([]Passage, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if p, ok := b.passages[hit.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Len is the number of indexed passages
func (b *Base) Len() int {
	return len(b.passages)
}

func (b *Base) Close() error {
	return b.index.Close()
}
