package backends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codejudge-ai/codejudge/internal/models"
)

func TestRegistry(t *testing.T) {
	t.Run("RegisterAndGet", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&MockBackend{BackendName: "a"}))
		require.NoError(t, r.Register(&MockBackend{BackendName: "b"}))

		b, err := r.Get("a")
		require.NoError(t, err)
		require.Equal(t, "a", b.Name())

		require.Equal(t, []string{"a", "b"}, r.Names())
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&MockBackend{BackendName: "a"}))
		require.Error(t, r.Register(&MockBackend{BackendName: "a"}))
	})

	t.Run("UnknownIdentifier", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Get("nope")
		require.ErrorContains(t, err, "nope")
	})

	t.Run("ResolvePreservesRequestOrder", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"c", "a", "b"} {
			require.NoError(t, r.Register(&MockBackend{BackendName: name}))
		}
		resolved, err := r.Resolve([]string{"b", "c", "a"})
		require.NoError(t, err)
		got := make([]string, 0, len(resolved))
		for _, b := range resolved {
			got = append(got, b.Name())
		}
		require.Equal(t, []string{"b", "c", "a"}, got)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownBackend", func(t *testing.T) {
		_, err := Create(ctx, "nonsense", nil, Credentials{})
		require.ErrorContains(t, err, "not a valid backend identifier")
	})

	t.Run("LocalAnalyzers", func(t *testing.T) {
		for _, name := range []string{NameStatic, NameSQLCheck} {
			b, err := Create(ctx, name, nil, Credentials{})
			require.NoError(t, err)
			require.Equal(t, name, b.Name())
		}
	})

	t.Run("RemoteWithParams", func(t *testing.T) {
		b, err := Create(ctx, NameOpenAI, map[string]any{"model": "gpt-4o-mini"}, Credentials{OpenAIKey: "sk-test"})
		require.NoError(t, err)
		require.Equal(t, NameOpenAI, b.Name())
	})

	t.Run("BadParamsRejected", func(t *testing.T) {
		_, err := Create(ctx, NameOpenAI, map[string]any{"temperature": "hot"}, Credentials{})
		require.Error(t, err)
	})
}

func TestMissingKeyIsAuthFailure(t *testing.T) {
	ctx := context.Background()
	unit := &models.CodeUnit{ID: "u1", Language: models.LanguagePython, Content: "print(1)"}

	for _, name := range []string{NameOpenAI, NameGemini, NameAnthropic} {
		t.Run(name, func(t *testing.T) {
			b, err := Create(ctx, name, nil, Credentials{})
			require.NoError(t, err)

			res, err := b.Evaluate(ctx, unit)
			require.NoError(t, err)
			require.True(t, res.Failed())
			require.Equal(t, models.FailureAuth, res.Failure.Kind)
			require.Zero(t, res.Confidence)
			require.Contains(t, res.Failure.Hint, "API_KEY")
		})
	}
}

const validPayload = `{
  "scores": {
    "correctness": 9, "efficiency": 7, "readability": 8,
    "scalability": 6, "security": 9, "modularity": 7,
    "documentation": 5, "best_practices": 8, "error_handling": 6
  },
  "feedback": "solid overall",
  "suggestions": ["add docstrings"],
  "confidence": 0.85
}`

func TestParseScorePayload(t *testing.T) {
	t.Run("PlainJSON", func(t *testing.T) {
		p, err := parseScorePayload(validPayload)
		require.NoError(t, err)
		require.Equal(t, 9.0, p.Scores.Correctness)
		require.Equal(t, 5.0, p.Scores.Documentation)
		require.Equal(t, 0.85, p.Confidence)
		require.Equal(t, "solid overall", p.Feedback)
		require.Equal(t, []string{"add docstrings"}, p.Suggestions)
	})

	t.Run("MarkdownFenced", func(t *testing.T) {
		p, err := parseScorePayload("```json\n" + validPayload + "\n```")
		require.NoError(t, err)
		require.Equal(t, 0.85, p.Confidence)
	})

	t.Run("NotJSON", func(t *testing.T) {
		_, err := parseScorePayload("I would rate this code highly.")
		require.ErrorContains(t, err, "not valid JSON")
	})

	t.Run("MissingCriterion", func(t *testing.T) {
		_, err := parseScorePayload(`{"scores": {"correctness": 9}, "feedback": "x", "confidence": 0.5}`)
		require.ErrorContains(t, err, "score schema")
	})

	t.Run("ScoreOutOfRange", func(t *testing.T) {
		bad := `{
		  "scores": {
		    "correctness": 15, "efficiency": 7, "readability": 8,
		    "scalability": 6, "security": 9, "modularity": 7,
		    "documentation": 5, "best_practices": 8, "error_handling": 6
		  },
		  "feedback": "x",
		  "confidence": 0.5
		}`
		_, err := parseScorePayload(bad)
		require.ErrorContains(t, err, "score schema")
	})
}

func TestSuccessResult(t *testing.T) {
	t.Run("ZeroConfidenceBecomesFailure", func(t *testing.T) {
		res := successResult("m", &scorePayload{Confidence: 0})
		require.True(t, res.Failed())
		require.Equal(t, models.FailureMalformedResponse, res.Failure.Kind)
	})

	t.Run("PositiveConfidencePassesThrough", func(t *testing.T) {
		res := successResult("m", &scorePayload{Confidence: 0.9, Feedback: "ok"})
		require.False(t, res.Failed())
		require.Equal(t, 0.9, res.Confidence)
		require.Nil(t, res.Failure)
	})
}

func TestStaticAnalyzer(t *testing.T) {
	ctx := context.Background()
	b := NewStaticAnalyzer()

	t.Run("SupportsPythonNotSQL", func(t *testing.T) {
		require.True(t, b.Supports(models.LanguagePython))
		require.True(t, b.Supports(models.LanguagePySpark))
		require.False(t, b.Supports(models.LanguageSQL))
	})

	t.Run("DangerousCodeScoresLowOnSecurity", func(t *testing.T) {
		unit := &models.CodeUnit{
			ID:       "u1",
			Language: models.LanguagePython,
			Content:  "password = \"hunter2\"\nresult = eval(user_input)\n",
		}
		res, err := b.Evaluate(ctx, unit)
		require.NoError(t, err)
		require.False(t, res.Failed())
		require.Equal(t, staticConfidence, res.Confidence)
		require.Less(t, res.Scores.Security, 3.0)
		require.NotEmpty(t, res.Suggestions)
	})

	t.Run("CleanCodeScoresWell", func(t *testing.T) {
		unit := &models.CodeUnit{
			ID:       "u2",
			Language: models.LanguagePython,
			Content: `# Compute totals per region.
def totals(rows):
    """Sum the amount column grouped by region."""
    try:
        return rows.groupby("region").amount.sum()
    except KeyError:
        return None
`,
		}
		res, err := b.Evaluate(ctx, unit)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Scores.Security, 9.0)
		require.GreaterOrEqual(t, res.Scores.ErrorHandling, 9.0)
	})

	t.Run("PySparkCollectFlagged", func(t *testing.T) {
		unit := &models.CodeUnit{
			ID:       "u3",
			Language: models.LanguagePySpark,
			Content:  "rows = df.filter(df.x > 1).collect()\n",
		}
		res, err := b.Evaluate(ctx, unit)
		require.NoError(t, err)
		require.Less(t, res.Scores.Efficiency, 8.0)
	})
}

func TestSQLAnalyzer(t *testing.T) {
	ctx := context.Background()
	b := NewSQLAnalyzer()

	t.Run("SupportsOnlySQL", func(t *testing.T) {
		require.True(t, b.Supports(models.LanguageSQL))
		require.False(t, b.Supports(models.LanguagePython))
	})

	t.Run("InjectionPatternTanksSecurity", func(t *testing.T) {
		unit := &models.CodeUnit{
			ID:       "q1",
			Language: models.LanguageSQL,
			Content:  "SELECT * FROM users WHERE name = '' OR 1=1",
		}
		res, err := b.Evaluate(ctx, unit)
		require.NoError(t, err)
		require.Less(t, res.Scores.Security, 2.0)
	})

	t.Run("UnguardedDeleteFlagged", func(t *testing.T) {
		unit := &models.CodeUnit{
			ID:       "q2",
			Language: models.LanguageSQL,
			Content:  "DELETE FROM orders",
		}
		res, err := b.Evaluate(ctx, unit)
		require.NoError(t, err)
		require.Less(t, res.Scores.Security, 3.0)
		found := false
		for _, s := range res.Suggestions {
			if s == "add a WHERE clause; unguarded DELETE/UPDATE touches every row" {
				found = true
			}
		}
		require.True(t, found)
	})

	t.Run("WellFormedQueryScoresWell", func(t *testing.T) {
		unit := &models.CodeUnit{
			ID:       "q3",
			Language: models.LanguageSQL,
			Content: `-- Revenue per region for the current year.
SELECT r.region, SUM(o.amount) AS revenue
FROM orders o
JOIN regions r ON r.id = o.region_id
WHERE o.year = 2026
GROUP BY r.region
ORDER BY revenue DESC
LIMIT 10`,
		}
		res, err := b.Evaluate(ctx, unit)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Scores.Correctness, 9.0)
		require.GreaterOrEqual(t, res.Scores.Security, 9.0)
	})
}
