package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextSentence(t *testing.T) {
	tests := []struct {
		name     string
		fullText string
		selected string
		want     string
		found    bool
	}{
		{
			name:     "middle sentence",
			fullText: "Hello. The big dog runs fast. Goodbye.",
			selected: "dog",
			want:     "The big dog runs fast.",
			found:    true,
		},
		{
			name:     "first sentence without leading terminator",
			fullText: "The big dog runs fast. Goodbye.",
			selected: "dog",
			want:     "The big dog runs fast.",
			found:    true,
		},
		{
			name:     "last sentence without trailing terminator",
			fullText: "Hello. The big dog runs fast",
			selected: "dog",
			want:     "The big dog runs fast",
			found:    true,
		},
		{
			name:     "case insensitive match",
			fullText: "Hello. The big DOG runs fast. Goodbye.",
			selected: "dog",
			want:     "The big DOG runs fast.",
			found:    true,
		},
		{
			name:     "whitespace collapsed before matching",
			fullText: "Hello.  The   big\n dog\truns fast. Goodbye.",
			selected: "big  dog",
			want:     "The big dog runs fast.",
			found:    true,
		},
		{
			name:     "ellipsis terminates",
			fullText: "Wait… The big dog runs fast. Done.",
			selected: "dog",
			want:     "The big dog runs fast.",
			found:    true,
		},
		{
			name:     "exclamation and question marks terminate",
			fullText: "Really! Is the dog fast? Yes.",
			selected: "dog",
			want:     "Is the dog fast?",
			found:    true,
		},
		{
			name:     "selection not present",
			fullText: "Hello. The big dog runs fast. Goodbye.",
			selected: "cat",
			found:    false,
		},
		{
			name:     "span too short to be usable",
			fullText: "Go. dog now. More text here.",
			selected: "dog",
			found:    false,
		},
		{
			name:     "empty full text",
			fullText: "",
			selected: "dog",
			found:    false,
		},
		{
			name:     "empty selection",
			fullText: "The big dog runs fast.",
			selected: "",
			found:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ContextSentence(tt.fullText, tt.selected)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}
