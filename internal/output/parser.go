// Package output extracts predictions from engine output and renders them for people.
package output

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Alias1177/LottoPredictor/models"
)

// MarkerLabel precedes the mapping literal on the prediction line
const MarkerLabel = "预测结果："

var markerRe = regexp.MustCompile(`(?s)预测结果[：:]\s*(\{.*?\})`)

// Parse finds the marker line in out and returns its mapping.
// Entries whose value is not an integer are left out; an absent or broken marker yields an empty result.
func Parse(out string) models.PredictionResult {
	m := markerRe.FindStringSubmatch(out)
	if m == nil {
		return models.PredictionResult{}
	}
	res, err := parseMapping(m[1])
	if err != nil {
		return models.PredictionResult{}
	}
	return res
}

// parseMapping reads a flat {'key': value, ...} literal as printed by Python or JSON encoders
func parseMapping(literal string) (models.PredictionResult, error) {
	body := strings.TrimSpace(literal)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")

	res := models.PredictionResult{}
	if strings.TrimSpace(body) == "" {
		return res, nil
	}

	for _, entry := range splitUnquoted(body, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		sep := indexUnquoted(entry, ':')
		if sep < 0 {
			return nil, fmt.Errorf("entry %q has no separator", entry)
		}

		key, err := unquote(strings.TrimSpace(entry[:sep]))
		if err != nil {
			return nil, err
		}

		n, err := strconv.Atoi(strings.TrimSpace(entry[sep+1:]))
		if err != nil {
			continue
		}
		res[key] = n
	}
	return res, nil
}

// splitUnquoted splits s at every sep that is not inside a quoted string
func splitUnquoted(s string, sep byte) []string {
	var parts []string
	for {
		i := indexUnquoted(s, sep)
		if i < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:i])
		s = s[i+1:]
	}
}

// indexUnquoted returns the index of the first sep outside single or double quotes, or -1
func indexUnquoted(s string, sep byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			return i
		}
	}
	return -1
}

func unquote(s string) (string, error) {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1], nil
		}
	}
	return "", fmt.Errorf("key %q is not quoted", s)
}

// Marker renders res as the prediction line understood by Parse, in position order
func Marker(v models.VariantConfig, res models.PredictionResult) string {
	var parts []string
	for _, cat := range []models.Category{models.Red, models.Blue} {
		for _, h := range v.Headers(cat) {
			if n, ok := res[h]; ok {
				parts = append(parts, fmt.Sprintf("'%s': %d", h, n))
			}
		}
	}
	return MarkerLabel + "{" + strings.Join(parts, ", ") + "}"
}
