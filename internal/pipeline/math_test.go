package pipeline

import (
	"strings"
	"testing"
)

func TestExtractMath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantExprs []MathExpr
		wantText  string // "" means: compare with input
	}{
		{
			name:      "no dollar",
			input:     "plain text",
			wantExprs: nil,
		},
		{
			name:      "lone dollar untouched",
			input:     "costs $5 each",
			wantExprs: nil,
		},
		{
			name:      "inline",
			input:     "Cost: $5$",
			wantExprs: []MathExpr{{Display: false, TeX: "5"}},
			wantText:  "Cost: " + mathInlineMarker + "0" + mathEndMarker,
		},
		{
			name:      "block",
			input:     "$$x^2$$",
			wantExprs: []MathExpr{{Display: true, TeX: "x^2"}},
			wantText:  mathBlockMarker + "0" + mathEndMarker,
		},
		{
			name:      "block content trimmed",
			input:     "$$\n  a + b\n$$",
			wantExprs: []MathExpr{{Display: true, TeX: "a + b"}},
		},
		{
			name:  "block before inline",
			input: "$a$ and $$b$$ and $c$",
			wantExprs: []MathExpr{
				{Display: true, TeX: "b"},
				{Display: false, TeX: "a"},
				{Display: false, TeX: "c"},
			},
		},
		{
			name:      "inline does not span lines",
			input:     "$a\nb$",
			wantExprs: nil,
		},
		{
			name:  "non-greedy block",
			input: "$$a$$ text $$b$$",
			wantExprs: []MathExpr{
				{Display: true, TeX: "a"},
				{Display: true, TeX: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			text, set := ExtractMath(tt.input)
			got := set.exprs
			if len(got) != len(tt.wantExprs) {
				t.Fatalf("ExtractMath(%q) extracted %d exprs, want %d: %+v", tt.input, len(got), len(tt.wantExprs), got)
			}
			for i := range got {
				if got[i] != tt.wantExprs[i] {
					t.Errorf("expr[%d] = %+v, want %+v", i, got[i], tt.wantExprs[i])
				}
			}
			if len(tt.wantExprs) == 0 && text != tt.input {
				t.Errorf("ExtractMath(%q) text = %q, want unchanged", tt.input, text)
			}
			if tt.wantText != "" && text != tt.wantText {
				t.Errorf("ExtractMath(%q) text = %q, want %q", tt.input, text, tt.wantText)
			}
			if strings.Contains(text, "$$") && len(tt.wantExprs) > 0 {
				t.Errorf("ExtractMath(%q) left delimiters in %q", tt.input, text)
			}
		})
	}
}

func TestMathSet_Restore(t *testing.T) {
	t.Parallel()

	text, set := ExtractMath("$$a<b$$\n\nInline $x$ here")
	html := "<p>" + strings.Replace(text, "\n\n", "</p>\n<p>", 1) + "</p>\n"

	got := set.Restore(html)

	wantBlock := `<div class="math-block">a&lt;b</div>`
	if !strings.Contains(got, wantBlock) {
		t.Errorf("Restore() = %q, want block %q", got, wantBlock)
	}
	if strings.Contains(got, "<p>"+wantBlock) {
		t.Errorf("Restore() kept paragraph around block: %q", got)
	}
	wantInline := `<p>Inline <span class="math-inline">x</span> here</p>`
	if !strings.Contains(got, wantInline) {
		t.Errorf("Restore() = %q, want inline %q", got, wantInline)
	}
	if strings.ContainsAny(got, mathBlockMarker+mathInlineMarker+mathEndMarker) {
		t.Errorf("Restore() left placeholders in %q", got)
	}
}

func TestMathSet_RestoreUnknownIndex(t *testing.T) {
	t.Parallel()

	_, set := ExtractMath("$a$")
	in := "<p>" + mathInlineMarker + "7" + mathEndMarker + "</p>"
	if got := set.Restore(in); got != in {
		t.Errorf("Restore() = %q, want unchanged %q", got, in)
	}
}

func TestExtractMath_UserMarkersNeutralized(t *testing.T) {
	t.Parallel()

	input := "forged " + mathInlineMarker + "0" + mathEndMarker + " marker $y$"
	text, set := ExtractMath(input)

	if set.Len() != 1 {
		t.Fatalf("extracted %d exprs, want 1", set.Len())
	}
	got := set.Restore("<p>" + text + "</p>")
	if n := strings.Count(got, `<span class="math-inline">`); n != 1 {
		t.Errorf("Restore() produced %d math spans, want 1: %q", n, got)
	}
	if !strings.Contains(got, "forged \uFFFD0\uFFFD marker") {
		t.Errorf("user markers not replaced: %q", got)
	}
}

func TestMathSet_Plain(t *testing.T) {
	t.Parallel()

	text, set := ExtractMath("Area $a^2$")
	if got := set.Plain(text); got != "Area a^2" {
		t.Errorf("Plain(%q) = %q, want %q", text, got, "Area a^2")
	}
}

func TestMathSet_NilSafe(t *testing.T) {
	t.Parallel()

	var set *MathSet
	if set.Len() != 0 {
		t.Errorf("nil Len() = %d, want 0", set.Len())
	}
	if got := set.Restore("<p>x</p>"); got != "<p>x</p>" {
		t.Errorf("nil Restore() = %q", got)
	}
	if got := set.Plain("x"); got != "x" {
		t.Errorf("nil Plain() = %q", got)
	}
}
