package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameValues feeds an output name template.
type NameValues struct {
	AudioPath string
	Title     string
	// Index is the 1-based position in a batch.
	Index int
	Date  time.Time
}

// OutputBaseName expands template with values. Tokens are written $NAME
// ($$ for a literal dollar): $AUDIO, $SAFE_AUDIO, $TITLE, $SAFE_TITLE,
// $INDEX, $DATE and $TIME. Unknown tokens expand to nothing. An empty
// template or expansion falls back to the narration's base name.
func OutputBaseName(template string, values NameValues) string {
	template = strings.TrimSpace(template)
	fallback := sanitizeName(audioBase(values.AudioPath))
	if template == "" {
		return fallback
	}
	if base := sanitizeName(applyNameTemplate(template, nameTemplateValues(values))); base != "" {
		return base
	}
	return fallback
}

func audioBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func nameTemplateValues(v NameValues) map[string]string {
	audio := audioBase(v.AudioPath)
	values := map[string]string{
		"AUDIO":      sanitizeName(audio),
		"SAFE_AUDIO": SafeFileSlug(audio),
		"TITLE":      sanitizeName(v.Title),
		"SAFE_TITLE": SafeFileSlug(v.Title),
	}
	if v.Index > 0 {
		values["INDEX"] = fmt.Sprintf("%02d", v.Index)
	}
	if !v.Date.IsZero() {
		values["DATE"] = v.Date.Format("20060102")
		values["TIME"] = v.Date.Format("150405")
	}
	return values
}

func applyNameTemplate(template string, values map[string]string) string {
	var builder strings.Builder
	for i := 0; i < len(template); {
		ch := template[i]
		if ch != '$' {
			builder.WriteByte(ch)
			i++
			continue
		}

		if i+1 < len(template) && template[i+1] == '$' {
			builder.WriteByte('$')
			i += 2
			continue
		}

		j := i + 1
		for j < len(template) && isTokenByte(template, j) {
			j++
		}

		if j == i+1 {
			builder.WriteByte('$')
			i++
			continue
		}

		if val, ok := values[template[i+1:j]]; ok {
			builder.WriteString(val)
		}
		i = j
	}
	return builder.String()
}

// isTokenByte reports whether template[j] continues a token. An underscore
// only does when an alphanumeric follows, so "$AUDIO_final" keeps "_final".
func isTokenByte(template string, j int) bool {
	c := template[j]
	switch {
	case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_':
		if j+1 < len(template) {
			next := template[j+1]
			return (next >= 'A' && next <= 'Z') || (next >= '0' && next <= '9')
		}
	}
	return false
}

func sanitizeName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var builder strings.Builder
	lastUnderscore := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			builder.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				builder.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	result := strings.Trim(builder.String(), "_.-")
	if len(result) > 120 {
		result = result[:120]
	}
	return result
}

// SafeFileSlug folds accents, lowercases value and keeps [a-z0-9] runs joined
// by single dashes, at most 64 bytes long.
func SafeFileSlug(value string) string {
	if folded, _, err := transform.String(foldAccents(), value); err == nil {
		value = folded
	}
	fields := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	slug := strings.Join(fields, "-")
	if len(slug) > 64 {
		slug = strings.TrimRight(slug[:64], "-")
	}
	return slug
}

func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
