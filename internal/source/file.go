package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// FileSource reads code units from a file on disk. Jupyter notebooks
// contribute one unit per non-empty code cell; .py and .sql files are a
// single unit each.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Units(_ context.Context) ([]*models.CodeUnit, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	base := filepath.Base(s.Path)
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".ipynb":
		return notebookUnits(base, data)
	case ".sql":
		return singleUnit(base, string(data), models.LanguageSQL)
	case ".py":
		code := string(data)
		return singleUnit(base, code, DetectLanguage(code))
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .ipynb, .py or .sql)", filepath.Ext(s.Path))
	}
}

func singleUnit(name, code string, lang models.Language) ([]*models.CodeUnit, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%s contains no code", name)
	}
	return []*models.CodeUnit{{
		ID:        name,
		Language:  lang,
		Content:   code,
		LineCount: countLines(code),
	}}, nil
}

// notebookUnits extracts the code cells of a Jupyter notebook. Markdown
// cells and empty code cells are skipped. A cell's source may be stored as
// a string or as an array of lines; both forms occur in the wild.
func notebookUnits(name string, data []byte) ([]*models.CodeUnit, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s is not a valid notebook: bad JSON", name)
	}
	doc := gjson.ParseBytes(data)
	cells := doc.Get("cells")
	if !cells.IsArray() {
		return nil, fmt.Errorf("%s is not a valid notebook: no cells array", name)
	}

	// A SQL kernel settles every cell's language up front. Python kernels
	// still get per-cell detection so PySpark cells are tagged as such.
	kernelLang := models.ParseLanguage(doc.Get("metadata.language_info.name").String())

	var units []*models.CodeUnit
	index := 0
	cells.ForEach(func(_, cell gjson.Result) bool {
		defer func() { index++ }()
		if cell.Get("cell_type").String() != "code" {
			return true
		}
		code := strings.TrimSpace(cellSource(cell.Get("source")))
		if code == "" {
			return true
		}
		lang := kernelLang
		if lang != models.LanguageSQL {
			lang = DetectLanguage(code)
		}
		units = append(units, &models.CodeUnit{
			ID:        fmt.Sprintf("%s#cell_%d", name, index),
			Language:  lang,
			Content:   code,
			LineCount: countLines(code),
		})
		return true
	})

	if len(units) == 0 {
		return nil, fmt.Errorf("%s contains no code cells", name)
	}
	return units, nil
}

func cellSource(src gjson.Result) string {
	if src.IsArray() {
		var b strings.Builder
		for _, line := range src.Array() {
			b.WriteString(line.String())
		}
		return b.String()
	}
	return src.String()
}
