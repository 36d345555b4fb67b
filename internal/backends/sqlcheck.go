package backends

import (
	"context"
	"regexp"
	"strings"

	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/scoring"
)

var (
	sqlInjectionRe  = regexp.MustCompile(`(?i)OR\s+['"]?1['"]?\s*=\s*['"]?1['"]?`)
	sqlConcatRe     = regexp.MustCompile(`['"]\s*\+\s*\w+\s*\+\s*['"]`)
	selectStarRe    = regexp.MustCompile(`(?i)SELECT\s+\*`)
	dmlRe           = regexp.MustCompile(`(?i)\b(DELETE|UPDATE)\b`)
	whereRe         = regexp.MustCompile(`(?i)\bWHERE\b`)
	selectRe        = regexp.MustCompile(`(?i)\bSELECT\b`)
	joinOnRe        = regexp.MustCompile(`(?i)\bJOIN\s+\w+(\s+\w+)?\s+ON\b`)
	groupOrOrderRe  = regexp.MustCompile(`(?i)\b(GROUP\s+BY|ORDER\s+BY|HAVING)\b`)
	limitRe         = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)
	mixedCaseKwRe   = regexp.MustCompile(`\b(Select|From|Where|Join)\b`)
	advancedSetOpRe = regexp.MustCompile(`(?i)\b(UNION|INTERSECT|EXCEPT)\b`)
	otherVerbRe     = regexp.MustCompile(`(?i)\b(INSERT|CREATE|WITH)\b`)
)

// sqlAnalyzer is the SQL counterpart of the static analyzer: injection
// patterns, unguarded DML, formatting and structure checks.
type sqlAnalyzer struct{}

func NewSQLAnalyzer() Backend {
	return sqlAnalyzer{}
}

func (sqlAnalyzer) Name() string { return NameSQLCheck }

func (sqlAnalyzer) Supports(lang models.Language) bool {
	return lang == models.LanguageSQL
}

func (a sqlAnalyzer) Evaluate(_ context.Context, unit *models.CodeUnit) (*models.BackendResult, error) {
	code := unit.Content
	lines := nonBlankLines(code)

	var suggestions []string
	add := func(s string) { suggestions = append(suggestions, s) }

	security := 10.0
	if sqlInjectionRe.MatchString(code) {
		security -= 9.0
		add("remove tautology predicates like OR 1=1; use parameterized queries")
	}
	if sqlConcatRe.MatchString(code) {
		security -= 5.0
		add("never build SQL by string concatenation; bind parameters instead")
	}
	if selectStarRe.MatchString(code) {
		security -= 2.0
		add("select explicit columns instead of SELECT *")
	}
	if dmlRe.MatchString(code) && !whereRe.MatchString(code) {
		security -= 8.0
		add("add a WHERE clause; unguarded DELETE/UPDATE touches every row")
	}

	correctness := 10.0
	if !selectRe.MatchString(code) && !dmlRe.MatchString(code) && !otherVerbRe.MatchString(code) {
		correctness -= 5.0
		add("statement does not start with a recognized SQL verb")
	}
	if strings.Count(code, "(") != strings.Count(code, ")") {
		correctness -= 3.0
		add("unbalanced parentheses")
	}
	if joinOnRe.MatchString(code) {
		correctness += 1.0
	}
	if whereRe.MatchString(code) {
		correctness += 1.0
	}

	readability := 10.0
	if mixedCaseKwRe.MatchString(code) {
		readability -= 1.0
		add("use a consistent keyword case, conventionally UPPERCASE")
	}
	if indentVariety(lines) > 3 {
		readability -= 2.0
		add("use consistent indentation across clauses")
	}

	documentation := 10.0
	if commentRatio(lines, "--") < 0.1 {
		documentation -= 3.0
		if len(lines) > 5 {
			add("add -- comments describing what the query computes")
		}
	}
	if groupOrOrderRe.MatchString(code) {
		documentation += 1.0
	}

	efficiency := 8.0
	if limitRe.MatchString(code) {
		efficiency += 1.0
	}
	if selectStarRe.MatchString(code) {
		efficiency -= 1.0
	}

	scalability := 8.0
	if advancedSetOpRe.MatchString(code) {
		scalability += 1.0
	}

	scores := scoring.ScoreVector{
		Correctness:   correctness,
		Efficiency:    efficiency,
		Readability:   readability,
		Scalability:   scalability,
		Security:      security,
		Modularity:    readability,
		Documentation: documentation,
		BestPractices: readability,
		ErrorHandling: 7.0,
	}.Clamp()

	return &models.BackendResult{
		Backend:     a.Name(),
		Scores:      scores,
		Confidence:  staticConfidence,
		Feedback:    heuristicFeedback(len(suggestions)),
		Suggestions: suggestions,
	}, nil
}

func indentVariety(lines []string) int {
	seen := map[int]struct{}{}
	for _, line := range lines {
		seen[len(line)-len(strings.TrimLeft(line, " \t"))] = struct{}{}
	}
	return len(seen)
}
