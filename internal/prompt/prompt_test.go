package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"multiple-choice", KindMultipleChoice, false},
		{"reading", KindReading, false},
		{"cloze", KindCloze, false},
		{"listening", KindListening, false},
		{"listening-compound", KindListeningCompound, false},
		{"multi-blank", KindMultiBlank, false},
		{"essay", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		got, err := ParseKind(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", k.String(), err)
			continue
		}
		if got != k {
			t.Errorf("round trip of %v gave %v", k, got)
		}
	}
}

func TestTemplatesShareTheOutputRules(t *testing.T) {
	for _, k := range Kinds() {
		tpl := Template(k)
		if !strings.Contains(tpl, "code fence") {
			t.Errorf("%v template does not forbid code fences", k)
		}
		if !strings.Contains(tpl, "var Questions") {
			t.Errorf("%v template does not show the Questions shape", k)
		}
	}
}

func TestBuildPutsMaterialFirst(t *testing.T) {
	got := Build(KindCloze, "the passage")
	if !strings.HasPrefix(got, "the passage\n\n") {
		t.Fatalf("material is not at the start: %.40q", got)
	}
	if !strings.Contains(got, "var newContent") {
		t.Fatalf("cloze template missing from built prompt")
	}
	if Build(KindCloze, "") != Template(KindCloze) {
		t.Fatalf("empty material should yield the bare template")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"javascript fence", "```javascript\nvar Questions = [];\n```", "var Questions = [];"},
		{"bare fence", "```\nvar x = 1;\n```", "var x = 1;"},
		{"no fence", "var Questions = [];", "var Questions = [];"},
		{"unterminated fence", "```js\nvar x = 1;", "var x = 1;"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFence(tc.in); got != tc.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRefreshBlankIDs(t *testing.T) {
	in := `<span data-blank-id="111"></span> and <span data-blank-id="111"></span>`
	out := RefreshBlankIDs(in)

	if strings.Contains(out, `data-blank-id="111"`) {
		t.Fatalf("old blank id survived: %s", out)
	}
	if strings.Count(out, "data-blank-id=") != 2 {
		t.Fatalf("blank id count changed: %s", out)
	}

	// Two refreshes of the same input must disagree.
	if RefreshBlankIDs(in) == out {
		t.Fatalf("blank ids are not random")
	}
}

func TestFreshBlankIDIsNumeric(t *testing.T) {
	id := FreshBlankID()
	if id == "" {
		t.Fatalf("empty blank id")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			t.Fatalf("blank id %q is not numeric", id)
		}
	}
	if FreshBlankID() == id {
		t.Fatalf("consecutive blank ids collided")
	}
}

func TestQuestionLifecycle(t *testing.T) {
	q := NewQuestion(KindMultipleChoice, "Which planet is largest?", "/tmp/shot.png")

	if q.IsComplete() {
		t.Fatalf("unanswered question reported complete")
	}
	if !strings.HasPrefix(q.PromptText(), "Which planet is largest?") {
		t.Fatalf("prompt does not start with the stem")
	}

	q.SetReply("```javascript\nvar Questions = [{stem: `x <span data-blank-id=\"42\"></span>`}];\n```")
	if !q.IsComplete() {
		t.Fatalf("answered question reported incomplete")
	}
	if strings.Contains(q.Output, "```") {
		t.Fatalf("code fence survived SetReply: %s", q.Output)
	}
	if strings.Contains(q.Output, `data-blank-id="42"`) {
		t.Fatalf("blank id was not refreshed: %s", q.Output)
	}

	final := q.FinalOutput()
	if !strings.HasPrefix(final, q.Output) {
		t.Fatalf("final output does not start with the reply")
	}
	if !strings.Contains(final, "main();") {
		t.Fatalf("final output missing the automation snippet")
	}
}

func TestSummaryTruncatesByRunes(t *testing.T) {
	stem := strings.Repeat("完形填空题目内容", 20)
	q := NewQuestion(KindCloze, stem, "")

	summary := q.Summary()
	if !utf8.ValidString(summary) {
		t.Fatalf("summary is not valid UTF-8: %q", summary)
	}
	if !strings.Contains(summary, string([]rune(stem)[:50])) {
		t.Fatalf("summary does not contain the 50-rune stem prefix: %q", summary)
	}
	if strings.Contains(summary, string([]rune(stem)[:51])) {
		t.Fatalf("summary carries more than 50 stem runes: %q", summary)
	}
}

func TestAdditionalCodePerKind(t *testing.T) {
	if !strings.Contains(AdditionalCode(KindCloze), "blank-config-item") {
		t.Fatalf("cloze snippet missing blank configuration driver")
	}
	if !strings.Contains(AdditionalCode(KindReading), "newContent") {
		t.Fatalf("reading snippet missing passage insertion")
	}
	if !strings.Contains(AdditionalCode(KindMultipleChoice), "Questions.length") {
		t.Fatalf("single-question snippet missing question loop")
	}
}
