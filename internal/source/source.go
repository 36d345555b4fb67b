// Package source produces the code units a job evaluates: notebook cells,
// SQL files and Python scripts.
package source

import (
	"context"
	"strings"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// Source yields the code units for one job.
type Source interface {
	Units(ctx context.Context) ([]*models.CodeUnit, error)
}

// Units is a fixed in-memory source.
type Units []*models.CodeUnit

func (u Units) Units(context.Context) ([]*models.CodeUnit, error) {
	return u, nil
}

var sqlKeywords = []string{
	"select", "insert into", "update ", "delete from",
	"create table", "create view", "drop table", "alter table",
}

var sparkKeywords = []string{
	"pyspark", "sparksession", "spark.sql", "spark.read",
	".rdd", "dataframe",
}

// DetectLanguage classifies a code fragment. SQL wins over PySpark wins
// over plain Python, the same precedence notebooks are graded with.
func DetectLanguage(code string) models.Language {
	lower := strings.ToLower(code)
	for _, kw := range sqlKeywords {
		if strings.Contains(lower, kw) {
			return models.LanguageSQL
		}
	}
	for _, kw := range sparkKeywords {
		if strings.Contains(lower, kw) {
			return models.LanguagePySpark
		}
	}
	return models.LanguagePython
}

func countLines(code string) int {
	if code == "" {
		return 0
	}
	return len(strings.Split(strings.TrimRight(code, "\n"), "\n"))
}
