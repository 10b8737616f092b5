// Package gazetteer holds the static Serbian tourism vocabulary tables
// used by the entity extractor, self-query parser, and query expander:
// month-name case declensions, season words, intent trigger phrases, and
// tourism-domain keywords. These are closed, hand-maintained lists — no
// general-purpose Serbian NLP library exists in the ecosystem worth
// pulling in for this narrow vocabulary.
package gazetteer

// MonthCanonical maps every Serbian grammatical-case form and common
// phrase form of a month name to its canonical English lowercase name.
// Ported from the reference self-querying service's exhaustive
// declension table.
var MonthCanonical = map[string]string{
	"januar": "january", "januara": "january", "januaru": "january", "januarom": "january",
	"u januaru": "january", "tokom januara": "january", "početkom januara": "january",

	"februar": "february", "februara": "february", "februaru": "february", "februarom": "february",
	"u februaru": "february", "tokom februara": "february", "početkom februara": "february",

	"mart": "march", "marta": "march", "martu": "march", "martom": "march",
	"u martu": "march", "tokom marta": "march", "početkom marta": "march",

	"april": "april", "aprila": "april", "aprilu": "april", "aprilom": "april",
	"u aprilu": "april", "tokom aprila": "april", "početkom aprila": "april",

	"maj": "may", "maja": "may", "maju": "may", "majem": "may",
	"u maju": "may", "tokom maja": "may", "početkom maja": "may",

	"jun": "june", "juna": "june", "junu": "june", "junom": "june",
	"u junu": "june", "tokom juna": "june", "početkom juna": "june",

	"juli": "july", "julija": "july", "juliju": "july", "julijem": "july", "julu": "july",
	"u juliju": "july", "u julu": "july", "tokom julija": "july", "početkom julija": "july",

	"avg": "august", "avgust": "august", "avgusta": "august", "avgustu": "august", "avgustom": "august",
	"u avgustu": "august", "tokom avgusta": "august", "početkom avgusta": "august",
	"sredinom avgusta": "august", "krajem avgusta": "august", "za avgust": "august",

	"septembar": "september", "septembra": "september", "septembru": "september", "septembrom": "september",
	"u septembru": "september", "tokom septembra": "september", "početkom septembra": "september",

	"oktobar": "october", "oktobra": "october", "oktobru": "october", "oktobrom": "october",
	"u oktobru": "october", "tokom oktobra": "october", "početkom oktobra": "october",

	"novembar": "november", "novembra": "november", "novembru": "november", "novembrom": "november",
	"u novembru": "november", "tokom novembra": "november", "početkom novembra": "november",

	"decembar": "december", "decembra": "december", "decembru": "december", "decembrom": "december",
	"u decembru": "december", "tokom decembra": "december", "početkom decembra": "december",
}

// SeasonWords maps Serbian season and month words to a canonical season.
var SeasonWords = map[string]string{
	"proleće": "spring", "prolece": "spring", "mart": "spring", "april": "spring", "maj": "spring",
	"leto": "summer", "jun": "summer", "juli": "summer", "avg": "summer", "avgust": "summer",
	"jesen": "autumn", "septembar": "autumn", "oktobar": "autumn", "novembar": "autumn",
	"zima": "winter", "decembar": "winter", "januar": "winter", "februar": "winter",
}

// CanonicalMonth looks up a raw Serbian phrase (already lowercased and
// trimmed) against the declension table; only an exact match of the
// whole phrase is found.
func CanonicalMonth(phrase string) (string, bool) {
	if v, ok := MonthCanonical[phrase]; ok {
		return v, true
	}
	return "", false
}
