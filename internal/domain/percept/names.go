package percept

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// displayNameOverrides are canonical ids whose display form title-casing gets wrong.
var displayNameOverrides = map[string]string{
	"yang di-pertuan agong": "Yang di-Pertuan Agong",
	"son of heaven":         "Song of Heaven",
}

// FormatName returns the human-readable label for a canonical percept id.
func FormatName(id string) string {
	if name, ok := displayNameOverrides[id]; ok {
		return name
	}
	// A Caser holds state and is not safe for concurrent use.
	return cases.Title(language.English).String(strings.TrimSpace(id))
}
