// Package prompt builds question-type-specific prompts and post-processes
// model replies into paste-ready output.
package prompt

import "fmt"

// Kind identifies a question type. Each kind has its own prompt template and
// companion automation snippet.
type Kind int

const (
	KindMultipleChoice Kind = iota
	KindReading
	KindCloze
	KindListening
	KindListeningCompound
	KindMultiBlank
)

func (k Kind) String() string {
	switch k {
	case KindMultipleChoice:
		return "multiple-choice"
	case KindReading:
		return "reading"
	case KindCloze:
		return "cloze"
	case KindListening:
		return "listening"
	case KindListeningCompound:
		return "listening-compound"
	case KindMultiBlank:
		return "multi-blank"
	default:
		return "unknown"
	}
}

// ParseKind maps a CLI flag value to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown question type %q (valid: %s)", s, kindList())
}

// Kinds enumerates every question type in display order.
func Kinds() []Kind {
	return []Kind{
		KindMultipleChoice,
		KindReading,
		KindCloze,
		KindListening,
		KindListeningCompound,
		KindMultiBlank,
	}
}

func kindList() string {
	s := ""
	for i, k := range Kinds() {
		if i > 0 {
			s += ", "
		}
		s += k.String()
	}
	return s
}
