package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
)

func TestParse(t *testing.T) {
	stop := tokenizer.NewStopWords([]string{"и", "в", "на"})

	tests := []struct {
		name  string
		raw   string
		plus  []string
		minus []string
	}{
		{
			name: "plus terms sorted",
			raw:  "пушистый ухоженный кот",
			plus: []string{"кот", "пушистый", "ухоженный"},
		},
		{
			name:  "minus term",
			raw:   "пушистый -пёс",
			plus:  []string{"пушистый"},
			minus: []string{"пёс"},
		},
		{
			name: "only stop words",
			raw:  "и в на",
		},
		{
			name: "stop word with minus marker is dropped",
			raw:  "кот -и",
			plus: []string{"кот"},
		},
		{
			name:  "duplicates collapse",
			raw:   "cat cat -dog -dog",
			plus:  []string{"cat"},
			minus: []string{"dog"},
		},
		{
			name: "empty tokens are skipped",
			raw:  "  cat  ",
			plus: []string{"cat"},
		},
		{
			name:  "term can be both plus and minus",
			raw:   "cat -cat",
			plus:  []string{"cat"},
			minus: []string{"cat"},
		},
		{
			name:  "lexicographic byte order",
			raw:   "fur cat Zebra -b -a",
			plus:  []string{"Zebra", "cat", "fur"},
			minus: []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Parse(tt.raw, stop)
			assert.Equal(t, tt.raw, q.RawQuery)
			if len(tt.plus) == 0 {
				assert.Empty(t, q.PlusTerms)
				assert.True(t, q.Empty())
			} else {
				assert.Equal(t, tt.plus, q.PlusTerms)
				assert.False(t, q.Empty())
			}
			if len(tt.minus) == 0 {
				assert.Empty(t, q.MinusTerms)
			} else {
				assert.Equal(t, tt.minus, q.MinusTerms)
			}
		})
	}
}

func TestParseWithoutStopWords(t *testing.T) {
	q := Parse("in the city", tokenizer.StopWords{})
	assert.Equal(t, []string{"city", "in", "the"}, q.PlusTerms)
}
