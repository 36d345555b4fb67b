package backends

import (
	"context"
	"regexp"
	"strings"

	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/scoring"
)

// staticConfidence reflects that rule-based heuristics give a real but
// coarse signal compared to a model-backed review.
const staticConfidence = 0.6

var (
	hardcodedCredRe = regexp.MustCompile(`(?i)(password|secret|api_key|token)\s*=\s*['"][^'"]+['"]`)
	pyFuncRe        = regexp.MustCompile(`(?m)^\s*def\s+\w+`)
	pyDocstringRe   = regexp.MustCompile(`(?s)(def|class)\s+\w+[^:]*:\s*\n\s*("""|''')`)
	badNameRe       = regexp.MustCompile(`(?m)^\s*([a-z]|[a-zA-Z]\d?)\s*=\s*`)
)

// staticAnalyzer scores Python and PySpark code with rule-based checks:
// documentation density, dangerous calls, hardcoded credentials, error
// handling and structure. It never touches the network.
type staticAnalyzer struct{}

func NewStaticAnalyzer() Backend {
	return staticAnalyzer{}
}

func (staticAnalyzer) Name() string { return NameStatic }

func (staticAnalyzer) Supports(lang models.Language) bool {
	return lang == models.LanguagePython || lang == models.LanguagePySpark
}

func (a staticAnalyzer) Evaluate(_ context.Context, unit *models.CodeUnit) (*models.BackendResult, error) {
	code := unit.Content
	lines := nonBlankLines(code)

	var suggestions []string
	add := func(s string) { suggestions = append(suggestions, s) }

	security := 10.0
	if strings.Contains(code, "eval(") || strings.Contains(code, "exec(") {
		security -= 8.0
		add("avoid eval/exec; they execute arbitrary code")
	}
	if strings.Contains(code, "os.system(") || strings.Contains(code, "shell=True") {
		security -= 5.0
		add("avoid shelling out with unsanitized input")
	}
	if hardcodedCredRe.MatchString(code) {
		security -= 5.0
		add("move hardcoded credentials into environment variables or a secret store")
	}

	documentation := 10.0
	ratio := commentRatio(lines, "#")
	switch {
	case ratio < 0.05:
		documentation -= 4.0
		add("add comments or docstrings explaining intent")
	case ratio < 0.15:
		documentation -= 2.0
	}
	if pyFuncRe.MatchString(code) && !pyDocstringRe.MatchString(code) {
		documentation -= 2.0
		add("add docstrings to function definitions")
	}

	errorHandling := 10.0
	if !strings.Contains(code, "try:") {
		errorHandling -= 4.0
		if len(lines) > 10 {
			add("wrap failure-prone operations in try/except")
		}
	} else if strings.Contains(code, "except:") && !strings.Contains(code, "except ") {
		errorHandling -= 3.0
		add("catch specific exception types instead of a bare except")
	}

	readability := 10.0
	if badNameRe.MatchString(code) {
		readability -= 2.0
		add("prefer descriptive variable names over single letters")
	}
	if maxIndentDepth(lines) > 4 {
		readability -= 2.0
		add("reduce nesting by extracting helper functions or early returns")
	}

	modularity := 10.0
	if len(lines) > 30 && !pyFuncRe.MatchString(code) {
		modularity -= 3.0
		add("break long scripts into functions")
	}

	efficiency := 8.0
	if unit.Language == models.LanguagePySpark {
		if strings.Contains(code, ".collect()") {
			efficiency -= 3.0
			add("avoid collect() on large datasets; keep work on the executors")
		}
		if strings.Contains(code, ".cache()") || strings.Contains(code, ".persist(") {
			efficiency += 1.0
		}
	}

	scores := scoring.ScoreVector{
		Correctness:   8.0,
		Efficiency:    efficiency,
		Readability:   readability,
		Scalability:   8.0,
		Security:      security,
		Modularity:    modularity,
		Documentation: documentation,
		BestPractices: readability,
		ErrorHandling: errorHandling,
	}.Clamp()

	return &models.BackendResult{
		Backend:     a.Name(),
		Scores:      scores,
		Confidence:  staticConfidence,
		Feedback:    heuristicFeedback(len(suggestions)),
		Suggestions: suggestions,
	}, nil
}

func heuristicFeedback(issues int) string {
	if issues == 0 {
		return "Rule-based analysis found no notable issues."
	}
	return "Rule-based analysis flagged issues; see suggestions."
}

func nonBlankLines(code string) []string {
	var out []string
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func commentRatio(lines []string, marker string) float64 {
	if len(lines) == 0 {
		return 0
	}
	comments := 0
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), marker) {
			comments++
		}
	}
	return float64(comments) / float64(len(lines))
}

func maxIndentDepth(lines []string) int {
	max := 0
	for _, line := range lines {
		indent := 0
		for _, r := range line {
			if r == ' ' {
				indent++
			} else if r == '\t' {
				indent += 4
			} else {
				break
			}
		}
		if depth := indent / 4; depth > max {
			max = depth
		}
	}
	return max
}
