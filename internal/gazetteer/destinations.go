package gazetteer

import "strings"

// Destinations maps every lowercase spelling variant of a known tourism
// destination to its canonical display form. Ported from the reference
// PDF processor's location table plus the entity extractor's tourism
// entity list.
var Destinations = map[string]string{
	"beograd":     "Beograd",
	"novi sad":    "Novi Sad",
	"niš":         "Niš",
	"kragujevac":  "Kragujevac",
	"rim":         "Rim",
	"roma":        "Rim",
	"pariz":       "Pariz",
	"berlin":      "Berlin",
	"beč":         "Beč",
	"vienna":      "Beč",
	"prag":        "Prag",
	"budimpešta":  "Budimpešta",
	"istanbul":    "Istanbul",
	"atina":       "Atina",
	"solun":       "Solun",
	"barcelona":   "Barcelona",
	"madrid":      "Madrid",
	"london":      "London",
	"amsterdam":   "Amsterdam",
	"kopaonik":    "Kopaonik",
	"zlatibor":    "Zlatibor",
}

// CanonicalDestination looks up a raw lowercase substring against the
// destination table.
func CanonicalDestination(lowerText string) (string, bool) {
	for k, v := range Destinations {
		if strings.Contains(lowerText, k) {
			return v, true
		}
	}
	return "", false
}

// TourismKeywords are domain synonyms the entity extractor matches to
// detect a category, grouped by concept — ported from the reference query expansion
// service's tourism keyword set.
var TourismKeywords = map[string][]string{
	"hotel":      {"smeštaj", "apartman", "hotel", "prenoćište", "vila"},
	"tour":       {"putovanje", "izlet", "obilazak", "tura", "ekskurzija", "aranžman", "letovanje", "letovanja"},
	"restaurant": {"restoran", "kafana", "bar"},
	"attraction": {"muzej", "crkva", "tvrđava", "spomenik", "galerija"},
	"cruise":     {"krstarenje", "brod", "kruzer"},
	"beach":      {"plaža", "more", "primorje"},
	"mountain":   {"planina", "skijanje", "zimovanje"},
	"family":     {"porodica", "deca", "porodično"},
	"budget":     {"jeftino", "povoljno", "budžet"},
	"luxury":     {"luksuz", "pet zvezdica", "ekskluzivno"},
}

// IntentTriggers maps an intent label to its Serbian trigger phrases.
var IntentTriggers = map[string][]string{
	"search":         {"tražim", "potreban", "hoću", "želim", "imam potrebu"},
	"recommendation": {"preporuči", "predloži", "najbolji", "šta predlažete"},
	"comparison":     {"uporedi", "razlika", "bolje", "vs", "ili"},
	"information":    {"kakav", "koliko", "kada", "gde", "kako", "šta"},
	"booking":        {"rezerviši", "bukiraj", "zakaži", "dostupno"},
}
