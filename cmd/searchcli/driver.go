package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
)

// printer writes engine results in the line format of the demo driver.
type printer struct {
	w      io.Writer
	engine *indexer.Engine
}

func (p *printer) addDocument(id index.DocumentID, text string, status store.Status, ratings []int) {
	if err := p.engine.AddDocument(id, text, status, ratings); err != nil {
		fmt.Fprintf(p.w, "Error adding document %d: %v\n", id, err)
	}
}

func (p *printer) findTopDocuments(query string, status store.Status) {
	fmt.Fprintf(p.w, "Search results for query: %s\n", query)
	docs, err := p.engine.FindTopDocumentsByStatus(query, status)
	if err != nil {
		fmt.Fprintf(p.w, "Search error: %v\n", err)
		return
	}
	for _, doc := range docs {
		printDocument(p.w, doc)
	}
}

func (p *printer) matchDocuments(query string) {
	fmt.Fprintf(p.w, "Matching documents for query: %s\n", query)
	for id := range p.engine.Documents() {
		words, status, err := p.engine.MatchDocument(query, id)
		if err != nil {
			fmt.Fprintf(p.w, "Error matching documents for query %s: %v\n", query, err)
			return
		}
		printMatch(p.w, id, words, status)
	}
}

func (p *printer) terms() {
	for _, entry := range p.engine.Terms() {
		fmt.Fprintf(p.w, "%s:", entry.Term)
		for _, posting := range entry.Postings {
			fmt.Fprintf(p.w, " %d=%s", posting.DocID, formatFloat(posting.TermFreq))
		}
		fmt.Fprintln(p.w)
	}
}

func printDocument(w io.Writer, doc ranker.Document) {
	fmt.Fprintf(w, "{ document_id = %d, relevance = %s, rating = %d }\n",
		doc.ID, formatFloat(doc.Relevance), doc.Rating)
}

func printMatch(w io.Writer, id index.DocumentID, words []string, status store.Status) {
	var b strings.Builder
	fmt.Fprintf(&b, "{ document_id = %d, status = %d, words =", id, int(status))
	for _, word := range words {
		b.WriteByte(' ')
		b.WriteString(word)
	}
	b.WriteString("}\n")
	io.WriteString(w, b.String())
}

// formatFloat prints six significant digits without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

func demoCommand(c *cli.Context) error {
	engine, err := indexer.New(indexer.WithStopWordsText("и в на"))
	if err != nil {
		return err
	}
	p := &printer{w: c.App.Writer, engine: engine}

	p.addDocument(5, "пушистый кот пушистый хвост и", store.StatusActual, []int{7, 2, 7})
	p.addDocument(1, "пушистый пёс и модный ошейник", store.StatusActual, []int{1, 2})
	p.addDocument(-1, "пушистый пёс и модный ошейник", store.StatusActual, []int{1, 2})
	p.addDocument(3, "большой пёс скво\x12рец евгений", store.StatusActual, []int{1, 3, 2})
	p.addDocument(4, "большой пёс скворец евгений", store.StatusActual, []int{1, 1, 1})

	for _, q := range []string{"и в на", "пушистый -пёс", "пушистый --кот", "пушистый -"} {
		p.findTopDocuments(q, store.StatusActual)
	}
	for _, q := range []string{"пушистый пёс", "модный -кот", "модный --пёс", "пушистый - хвост"} {
		p.matchDocuments(q)
	}

	if _, err := engine.GetDocumentID(engine.GetDocumentCount()); err != nil {
		fmt.Fprintf(c.App.Writer, "Error: %v\n", err)
	}
	return nil
}

// runCommand reads a stop-word line, a document count, and for each document
// a text line followed by a ratings line ("<n> r1 ... rn"). Documents get ids
// 0, 1, 2... Every remaining non-empty line is a query.
func runCommand(c *cli.Context) error {
	status, err := store.ParseStatus(c.String("status"))
	if err != nil {
		return err
	}

	in := newLineReader(c.App.Reader)
	stopWords, err := in.line()
	if err != nil {
		return fmt.Errorf("reading stop words: %w", err)
	}
	engine, err := indexer.New(
		indexer.WithStopWordsText(stopWords),
		indexer.WithMaxResults(c.Int("max-results")),
	)
	if err != nil {
		return err
	}
	p := &printer{w: c.App.Writer, engine: engine}

	count, err := in.number()
	if err != nil {
		return fmt.Errorf("reading document count: %w", err)
	}
	for i := 0; i < count; i++ {
		text, err := in.line()
		if err != nil {
			return fmt.Errorf("reading document %d: %w", i, err)
		}
		ratings, err := in.ratings()
		if err != nil {
			return fmt.Errorf("reading ratings of document %d: %w", i, err)
		}
		p.addDocument(index.DocumentID(i), text, status, ratings)
	}

	if c.Bool("terms") {
		p.terms()
	}

	for {
		query, err := in.line()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if query == "" {
			continue
		}
		if c.Bool("match") {
			p.matchDocuments(query)
		} else {
			p.findTopDocuments(query, status)
		}
	}
}

type lineReader struct {
	scanner *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &lineReader{scanner: scanner}
}

// line returns the next line without its terminator, or io.EOF.
func (l *lineReader) line() (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSuffix(l.scanner.Text(), "\r"), nil
}

func (l *lineReader) number() (int, error) {
	s, err := l.line()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func (l *lineReader) ratings() ([]int, error) {
	s, err := l.line()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("missing rating count")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("rating count: %w", err)
	}
	if n != len(fields)-1 {
		return nil, fmt.Errorf("expected %d ratings, got %d", n, len(fields)-1)
	}
	ratings := make([]int, n)
	for i, f := range fields[1:] {
		if ratings[i], err = strconv.Atoi(f); err != nil {
			return nil, fmt.Errorf("rating %d: %w", i, err)
		}
	}
	return ratings, nil
}
