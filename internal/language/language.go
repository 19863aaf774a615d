package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Undetermined is the ISO 639-2 code for an unknown language.
const Undetermined = "und"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2/T
	alt3    string   // ISO 639-2/B where it differs ("fre" vs "fra")
	display string   // English name
	words   []string // full word forms
}

// Bibliographic codes are not known to x/text, so the common ones are kept
// in a table.
var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"fa", "fas", "per", "Persian", []string{"persian"}},
	{"ro", "ron", "rum", "Romanian", []string{"romanian"}},
	{"sk", "slk", "slo", "Slovak", []string{"slovak"}},
	{"is", "isl", "ice", "Icelandic", []string{"icelandic"}},
	{"hy", "hye", "arm", "Armenian", []string{"armenian"}},
	{"ka", "kat", "geo", "Georgian", []string{"georgian"}},
	{"mk", "mkd", "mac", "Macedonian", []string{"macedonian"}},
	{"sq", "sqi", "alb", "Albanian", []string{"albanian"}},
	{"cy", "cym", "wel", "Welsh", []string{"welsh"}},
	{"eu", "eus", "baq", "Basque", []string{"basque"}},
	{"my", "mya", "bur", "Burmese", []string{"burmese"}},
	{"ms", "msa", "may", "Malay", []string{"malay"}},
	{"bo", "bod", "tib", "Tibetan", []string{"tibetan"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func clean(code string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\x00", "")))
}

func lookup(code string) *entry {
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

func parse(code string) (xlanguage.Tag, bool) {
	tag, err := xlanguage.Parse(code)
	if err != nil || tag == xlanguage.Und {
		return xlanguage.Und, false
	}
	return tag, true
}

// Normalize returns the ISO 639-2/T code for a container language value.
// Empty input stays empty; unrecognized codes pass through lower-cased.
func Normalize(code string) string {
	code = clean(code)
	if code == "" || code == Undetermined {
		return code
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if tag, ok := parse(code); ok {
		base, conf := tag.Base()
		if conf != xlanguage.No {
			if iso3 := base.ISO3(); iso3 != "" && iso3 != Undetermined {
				return iso3
			}
		}
	}
	return code
}

// Equal reports whether two language values name the same language. Empty
// and undetermined values are equal to each other.
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" {
		na = Undetermined
	}
	if nb == "" {
		nb = Undetermined
	}
	return na == nb
}

// DisplayName returns an English name for the language. Empty or
// undetermined input gives "Unknown"; unrecognized codes are upper-cased.
func DisplayName(code string) string {
	code = clean(code)
	if code == "" || code == Undetermined {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if tag, ok := parse(code); ok {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(code)
}

// ExtractFromTags returns the first non-empty language tag value from
// ffprobe-style stream tags.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			if value = clean(value); value != "" {
				return value
			}
		}
	}
	return ""
}
