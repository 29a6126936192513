package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	cases := map[string]string{
		"Good day ahead.":     "Good day ahead.",
		"a_b *c* [d] `e`":     "a\\_b \\*c\\* \\[d] \\`e\\`",
		"(x) - y. z!":         "(x) - y. z!",
		"":                    "",
		"**double** __under": "\\*\\*double\\*\\* \\_\\_under",
	}
	for in, want := range cases {
		require.Equal(t, want, Markdown(in), in)
	}
}
