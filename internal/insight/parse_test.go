package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategies(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "numbered",
			in:   "1. Breathe slowly\n2.Stretch\n  3. Sleep early",
			want: []string{"Breathe slowly", "Stretch", "Sleep early"},
		},
		{
			name: "bullets",
			in:   "• Walk outside\n* Journal\n- Hydrate",
			want: []string{"Walk outside", "Journal", "Hydrate"},
		},
		{
			name: "sentences",
			in:   "Try a short walk. Rest. Call someone you trust! Ok?",
			want: []string{"Try a short walk", "Call someone you trust"},
		},
		{
			name: "capped",
			in:   "1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g",
			want: []string{"a", "b", "c", "d", "e"},
		},
		{
			name: "nothing",
			in:   "ok",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStrategies(tt.in))
		})
	}
}

func TestParsePlan(t *testing.T) {
	plan, ok := ParsePlan(`Plan: {"immediate":["a"],"shortTerm":["b"],"longTerm":["c"],"resources":["d"," "]} hope this helps`)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, plan.Immediate)
	assert.Equal(t, []string{"b"}, plan.ShortTerm)
	assert.Equal(t, []string{"c"}, plan.LongTerm)
	assert.Equal(t, []string{"d"}, plan.Resources)

	// two keys for one bucket: the first in key order wins, every time
	for i := 0; i < 20; i++ {
		plan, ok = ParsePlan(`{"short_term":["x"],"shortTerm":["y"],"Short-term goals":["z"]}`)
		require.True(t, ok)
		assert.Equal(t, []string{"z"}, plan.ShortTerm)
	}

	_, ok = ParsePlan(`{"unrelated": ["x"]}`)
	assert.False(t, ok)

	_, ok = ParsePlan(`{not json}`)
	assert.False(t, ok)

	_, ok = ParsePlan("no braces at all")
	assert.False(t, ok)
}
