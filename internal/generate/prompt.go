package generate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/vignette/internal/model"
)

// AnswerStyle is one framing for the five answer choices
type AnswerStyle struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Instruction string `mapstructure:"instruction" yaml:"instruction"`
}

// DefaultAnswerStyles is the palette rotated across a batch
var DefaultAnswerStyles = []AnswerStyle{
	{Name: "terse", Instruction: "Keep every answer choice to five words or fewer."},
	{Name: "sentence", Instruction: "Write every answer choice as a short, complete sentence with parallel structure."},
	{Name: "mechanism", Instruction: "Frame the answer choices as underlying mechanisms or pathophysiologic processes where the anchor allows it."},
	{Name: "management", Instruction: "Frame the answer choices as concrete actions a clinician could take, each starting with a verb."},
	{Name: "distractor-heavy", Instruction: "Make the four incorrect choices plausible near-misses from the same differential."},
}

// StyleFor picks the style for the i-th row of a batch
func StyleFor(i int, palette []AnswerStyle) AnswerStyle {
	if len(palette) == 0 || i < 0 {
		return AnswerStyle{}
	}
	return palette[i%len(palette)]
}

// PromptInput holds everything ComposePrompt needs
type PromptInput struct {
	SourceText          string
	AgeHint             string // decimal years, empty when unknown
	Anchor              string
	Topic               string
	Style               AnswerStyle
	MinExplanationChars int
}

// GenerationSystem is the system instruction sent with every generation prompt
const GenerationSystem = "You write original USMLE-style pediatric questions. Reply with a single JSON object and nothing else."

// ComposePrompt builds the rephrasing instruction. It is pure: equal
// inputs always give an equal prompt.
func ComposePrompt(in PromptInput) string {
	minExplanation := in.MinExplanationChars
	if minExplanation <= 0 {
		minExplanation = 200
	}

	var b strings.Builder

	b.WriteString("Write one new USMLE-style pediatric question based on the source question below.\n")
	b.WriteString("Preserve the clinical concept being tested, but change the surface scenario: patient details, setting and presentation wording must differ from the source.\n\n")

	b.WriteString("Respond with exactly these fields as one JSON object:\n")
	b.WriteString("{\n")
	for _, f := range payloadFields {
		fmt.Fprintf(&b, "  %q: %s,\n", f.name, f.kind)
	}
	b.WriteString("}\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- \"question\" is the clinical vignette only. Do not restate the anchor question, or any question, inside the vignette.\n")
	fmt.Fprintf(&b, "- \"anchor\" must be exactly: %q\n", anchorOrDefault(in.Anchor))
	b.WriteString("- The five answer choices must be distinct and plausible, with exactly one best answer.\n")
	b.WriteString("- \"correct_answer\" is a single lowercase letter: a, b, c, d, or e.\n")
	fmt.Fprintf(&b, "- \"answer_explanation\" is at least %d characters and explains why the correct answer is right and why each other choice is wrong.\n", minExplanation)
	b.WriteString("- \"age\" is the patient's age in years as a decimal number (e.g., 0.5 for 6 months).\n")
	if in.AgeHint != "" {
		fmt.Fprintf(&b, "- Keep the patient's age close to %s years unless the concept requires otherwise.\n", in.AgeHint)
	}
	if topic := strings.TrimSpace(in.Topic); topic != "" {
		fmt.Fprintf(&b, "- The question must still test: %s.\n", topic)
	}
	if in.Style.Instruction != "" {
		fmt.Fprintf(&b, "- Answer choice style: %s\n", in.Style.Instruction)
	}

	b.WriteString("\nSource question:\n")
	b.WriteString(strings.TrimSpace(in.SourceText))
	b.WriteString("\n")

	return b.String()
}

type payloadField struct {
	name string
	kind string
}

var payloadFields = []payloadField{
	{"question", "string"},
	{"anchor", "string"},
	{"answerchoice_a", "string"},
	{"answerchoice_b", "string"},
	{"answerchoice_c", "string"},
	{"answerchoice_d", "string"},
	{"answerchoice_e", "string"},
	{"correct_answer", `"a" | "b" | "c" | "d" | "e"`},
	{"answer_explanation", "string"},
	{"age", "number"},
}

func anchorOrDefault(anchor string) string {
	if a := strings.TrimSpace(anchor); a != "" {
		return a
	}
	return model.DefaultAnchor
}

var agePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)[\s-]*(year|yr|month|mo|week|wk|day)s?[\s-]*old\b`)

// AgeHint extracts the first "N-unit-old" age from text as decimal years,
// rounded to two places. It returns "" when no age is found.
func AgeHint(text string) string {
	m := agePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ""
	}

	switch strings.ToLower(m[2]) {
	case "month", "mo":
		n /= 12
	case "week", "wk":
		n /= 52
	case "day":
		n /= 365
	}

	n = math.Round(n*100) / 100
	return strconv.FormatFloat(n, 'f', -1, 64)
}
