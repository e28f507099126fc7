package segment

import (
	"regexp"
	"strings"

	"github.com/nkarpenko/slate/internal/model"
)

// Pattern matchers shared with numeric-fact extraction. Facts must be
// verbatim substrings of the source sentence, so the same patterns that set
// the metadata flags are used downstream to cut the substrings out.
var (
	// NumberPattern matches any digit run.
	NumberPattern = regexp.MustCompile(`\d`)

	// NumberUnitPattern matches a number immediately followed by a known
	// unit token (100°C, 42 km, 3.5 GB, 12 kg).
	NumberUnitPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?\s?(?:°C|°F|km/h|km|cm|mm|mi|kg|mg|g|lbs?|mph|ms|GHz|MHz|Hz|TB|GB|MB|KB|kW|kcal|min|hrs?|sec)\b`)

	// PercentPattern matches percentages.
	PercentPattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)

	// ISODatePattern matches ISO-8601 calendar dates.
	ISODatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	// MonthDatePattern matches month-name dates (May 1, 2023 / 1 May 2023).
	MonthDatePattern = regexp.MustCompile(`(?:(?:January|February|March|April|May|June|July|August|September|October|November|December)\s\d{1,2}(?:,\s\d{4})?)|(?:\d{1,2}\s(?:January|February|March|April|May|June|July|August|September|October|November|December)(?:\s\d{4})?)`)

	// YearPattern matches standalone years.
	YearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

var unitTokens = map[string]bool{
	"°c": true, "°f": true, "celsius": true, "fahrenheit": true, "degrees": true,
	"km": true, "km/h": true, "mph": true, "mile": true, "miles": true,
	"meter": true, "meters": true, "cm": true, "mm": true,
	"kg": true, "mg": true, "gram": true, "grams": true, "pound": true, "pounds": true,
	"percent": true, "%": true, "gb": true, "mb": true, "kb": true, "tb": true,
	"ghz": true, "mhz": true, "hz": true, "watt": true, "watts": true, "kw": true,
	"second": true, "seconds": true, "minute": true, "minutes": true,
	"hour": true, "hours": true, "kcal": true, "calories": true,
}

// ContainsUnitToken reports whether any word of the text is a recognized
// unit token.
func ContainsUnitToken(text string) bool {
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,;:!?\"'()")
		if unitTokens[f] {
			return true
		}
	}
	return strings.Contains(text, "%") || strings.Contains(text, "°")
}

// roleKeywords maps each rhetorical role to its trigger phrases. Matching
// order is fixed: definition > claim > evidence > limitation; context is the
// default when nothing matches.
var roleOrder = []model.RhetoricalRole{
	model.RoleDefinition,
	model.RoleClaim,
	model.RoleEvidence,
	model.RoleLimitation,
}

var roleKeywords = map[model.RhetoricalRole][]string{
	model.RoleDefinition: {
		"is defined as", "refers to", "is known as", "is called",
		"means that", "is a type of", "is the process",
	},
	model.RoleClaim: {
		"shows that", "demonstrates", "suggests that", "we found",
		"argues", "concludes", "believes", "claims that", "indicates that",
	},
	model.RoleEvidence: {
		"according to", "the study", "the data", "measured", "observed",
		"found that", "reported", "survey", "experiment",
	},
	model.RoleLimitation: {
		"however", "although", "limitation", "cannot", "may not",
		"does not", "only applies", "except",
	},
}

// ClassifyRole assigns a rhetorical role by keyword matching with fixed
// precedence; the first matching category wins.
func ClassifyRole(text string) model.RhetoricalRole {
	lower := strings.ToLower(text)
	for _, role := range roleOrder {
		for _, kw := range roleKeywords[role] {
			if strings.Contains(lower, kw) {
				return role
			}
		}
	}
	return model.RoleContext
}

// BuildMetadata pattern-matches a sentence into its metadata flags.
func BuildMetadata(text string) model.Metadata {
	return model.Metadata{
		HasNumbers: NumberPattern.MatchString(text),
		HasUnits:   NumberUnitPattern.MatchString(text) || PercentPattern.MatchString(text),
		HasDates:   hasDate(text),
		Role:       ClassifyRole(text),
	}
}

func hasDate(text string) bool {
	return ISODatePattern.MatchString(text) ||
		MonthDatePattern.MatchString(text) ||
		YearPattern.MatchString(text)
}
