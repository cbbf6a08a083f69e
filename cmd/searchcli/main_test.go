package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"searchcli"}, args...))
	return out.String(), err
}

func TestDemoCommand(t *testing.T) {
	out, err := runApp(t, "", "demo")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Contains(t, lines[0], "Error adding document -1:")
	assert.Contains(t, lines[1], "Error adding document 3:")

	assert.Contains(t, out, "Search results for query: и в на\nSearch results for query: пушистый -пёс\n"+
		"{ document_id = 5, relevance = 0.202733, rating = 5 }\n")
	assert.Contains(t, out, "Search results for query: пушистый --кот\nSearch error: ")
	assert.Contains(t, out, "Search results for query: пушистый -\nSearch error: ")

	assert.Contains(t, out, "Matching documents for query: пушистый пёс\n"+
		"{ document_id = 5, status = 0, words = пушистый}\n"+
		"{ document_id = 1, status = 0, words = пушистый пёс}\n"+
		"{ document_id = 4, status = 0, words = пёс}\n")
	assert.Contains(t, out, "Matching documents for query: модный -кот\n"+
		"{ document_id = 5, status = 0, words =}\n"+
		"{ document_id = 1, status = 0, words = модный}\n"+
		"{ document_id = 4, status = 0, words =}\n")
	assert.Contains(t, out, "Error matching documents for query модный --пёс: ")
	assert.Contains(t, out, "Error matching documents for query пушистый - хвост: ")

	assert.Contains(t, lines[len(lines)-1], "Error: ")
}

const runInput = `и в на
3
белый кот и модный ошейник
2 8 -3
пушистый кот пушистый хвост
3 7 2 7
ухоженный пёс выразительные глаза
4 5 -12 2 1
пушистый ухоженный кот

кот -пушистый
`

func TestRunCommand(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		out, err := runApp(t, runInput, "run")
		require.NoError(t, err)
		assert.Equal(t, "Search results for query: пушистый ухоженный кот\n"+
			"{ document_id = 1, relevance = 0.650672, rating = 5 }\n"+
			"{ document_id = 2, relevance = 0.274653, rating = -1 }\n"+
			"{ document_id = 0, relevance = 0.101366, rating = 2 }\n"+
			"Search results for query: кот -пушистый\n"+
			"{ document_id = 0, relevance = 0.101366, rating = 2 }\n", out)
	})

	t.Run("match", func(t *testing.T) {
		out, err := runApp(t, runInput, "run", "--match")
		require.NoError(t, err)
		assert.Contains(t, out, "Matching documents for query: кот -пушистый\n"+
			"{ document_id = 0, status = 0, words = кот}\n"+
			"{ document_id = 1, status = 0, words =}\n"+
			"{ document_id = 2, status = 0, words =}\n")
	})

	t.Run("status filter", func(t *testing.T) {
		out, err := runApp(t, runInput, "run", "--status", "banned", "--max-results", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Search results for query: пушистый ухоженный кот\n"+
			"{ document_id = 1, relevance = 0.650672, rating = 5 }\n"+
			"Search results for query: кот -пушистый\n")
	})

	t.Run("terms", func(t *testing.T) {
		out, err := runApp(t, runInput, "run", "--terms")
		require.NoError(t, err)
		assert.Contains(t, out, "кот: 0=0.25 1=0.25\n")
		assert.Contains(t, out, "пушистый: 1=0.5\n")
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := runApp(t, runInput, "run", "--status", "LOST")
		assert.Error(t, err)
	})

	t.Run("bad ratings", func(t *testing.T) {
		_, err := runApp(t, "\n1\nкот\n2 5\n", "run")
		assert.ErrorContains(t, err, "expected 2 ratings")
	})

	t.Run("truncated input", func(t *testing.T) {
		_, err := runApp(t, "\n2\nкот\n1 5\n", "run")
		assert.Error(t, err)
	})
}
