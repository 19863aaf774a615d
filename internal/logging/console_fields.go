package logging

import (
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type infoField struct {
	label string
	value string
}

const infoValueLimit = 120

// infoHighlightKeys are printed first, in this order, at info level and above.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldErrorKind,
	"error",
	FieldErrorHint,
	FieldImpact,
	FieldPath,
	FieldFormat,
	FieldBackend,
	"tracks",
	"decoded",
	FieldTrackID,
	"elapsed",
}

var labelCaser = cases.Title(language.English)

// selectInfoFields orders attributes for info output and counts the entries
// hidden because their values are too long.
func selectInfoFields(attrs []kv) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	add := func(idx int) {
		used[idx] = true
		value := formatValueForKey(attrs[idx].key, attrs[idx].value)
		if len(value) > infoValueLimit && attrs[idx].key != "error" {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attrs[idx].key), value: value})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case v.Kind() == slog.KindDuration && (key == "elapsed" || strings.HasSuffix(key, "_duration")):
		return v.Duration().Round(time.Microsecond).String()
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	return formatValue(v)
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldErrorKind:
		return "Error Kind"
	case FieldTrackID:
		return "Track"
	}
	return titleizeKey(key)
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	return labelCaser.String(strings.Join(words, " "))
}
