package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

func truncate(text string, maxChars int) string {
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars])
}

// BuildEnrichmentPrompt asks the model to classify one chunk of tourism
// offer text into the closed EnrichedMetadata schema.
func BuildEnrichmentPrompt(text, filename string) string {
	return fmt.Sprintf(`Ti si asistent za kategorizaciju turističkih ponuda. Analiziraj sledeći tekst iz dokumenta "%s" i vrati ISKLJUČIVO validan JSON (bez markdown ograde) sa sledećim poljima:

{
  "destination": "naziv destinacije ili prazan string",
  "category": "jedno od: tour, hotel, restaurant, attraction, ili prazan string",
  "subcategory": "opciono, kratka podkategorija",
  "price_min": broj (0 ako nepoznato),
  "price_max": broj (0 ako nepoznato),
  "duration_days": ceo broj (0 ako nepoznato),
  "transport_type": "jedno od: air, bus, car, train, mixed, ili prazan string",
  "travel_month": "engleski naziv meseca malim slovima, ili prazan string",
  "season": "jedno od: year_round, summer, winter, spring, autumn, ili prazan string",
  "family_friendly": true/false/null,
  "amenities": ["lista", "pogodnosti"],
  "confidence_score": broj između 0 i 1
}

Tekst:
%s`, filename, truncate(text, 6000))
}

// BuildRewritePrompt asks the model to resolve pronouns/implicit
// references in the current utterance using the session's recent turns
// and active entities.
func BuildRewritePrompt(utterance string, recent []domain.RecentTurn, active domain.ActiveEntityView) string {
	var sb strings.Builder
	sb.WriteString("Ti pomažeš da se korisnikovo pitanje o turističkim ponudama preformuliše u samostalan upit, razrešavajući zamenice i implicitne reference iz konteksta razgovora.\n\n")
	if len(recent) > 0 {
		sb.WriteString("Prethodni razgovor:\n")
		for _, t := range recent {
			sb.WriteString(fmt.Sprintf("- korisnik: %s\n", t.Utterance))
			if t.AnswerText != "" {
				sb.WriteString(fmt.Sprintf("  asistent: %s\n", truncate(t.AnswerText, 300)))
			}
		}
	}
	if len(active.Entries) > 0 {
		sb.WriteString("\nAktivni entiteti iz konteksta:\n")
		for _, e := range active.Entries {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", e.Field, e.Value))
		}
	}
	sb.WriteString(fmt.Sprintf("\nTrenutna poruka korisnika: %q\n\n", utterance))
	sb.WriteString("Vrati SAMO preformulisan, samostalan upit na srpskom, bez objašnjenja.")
	return sb.String()
}

// BuildSelfQueryPrompt asks the model to extract structured filters from
// a (possibly already rewritten) query.
func BuildSelfQueryPrompt(query string) string {
	return fmt.Sprintf(`Izdvoj strukturirane filtere iz upita o turističkim ponudama. Vrati ISKLJUČIVO validan JSON:

{
  "destination": "naziv destinacije ili prazan string",
  "category": "jedno od: tour, hotel, restaurant, attraction, ili prazan string",
  "travel_month": "engleski naziv meseca malim slovima, ili prazan string",
  "price_max": broj (0 ako nepoznato),
  "duration_days": ceo broj (0 ako nepoznato),
  "family_friendly": true/false/null,
  "intent": "jedno od: search, recommendation, comparison, information, booking",
  "confidence": broj između 0 i 1
}

Upit: %q`, query)
}

// BuildExpansionPrompt asks the model for up to 12 tourism-domain
// synonym/related terms for the query.
func BuildExpansionPrompt(query string) string {
	return fmt.Sprintf(`Predloži do 12 dodatnih termina i sinonima iz oblasti turizma koji bi pomogli pretrazi za sledeći upit. Vrati ISKLJUČIVO JSON niz stringova, bez objašnjenja.

Upit: %q`, query)
}

// BuildEntityExtractionPrompt asks the model for residual named entities
// the rule-based pass did not catch.
func BuildEntityExtractionPrompt(message string, recent []domain.RecentTurn) string {
	var sb strings.Builder
	sb.WriteString("Izdvoj imenovane entitete (destinacija, budžet, datumi, sastav grupe, smeštaj, prevoz) iz poruke korisnika o turističkom putovanju. Vrati ISKLJUČIVO JSON objekat sa poljima koje prepoznaš, bez objašnjenja. Ne izmišljaj vrednosti koje se ne pojavljuju u poruci.\n\n")
	if len(recent) > 0 {
		sb.WriteString("Kontekst prethodnih poruka:\n")
		for _, t := range recent {
			sb.WriteString(fmt.Sprintf("- %s\n", t.Utterance))
		}
	}
	sb.WriteString(fmt.Sprintf("\nPoruka: %q", message))
	return sb.String()
}

// BuildAnswerPrompt builds the grounded, citation-aware synthesis prompt.
func BuildAnswerPrompt(question string, chunks []domain.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("Ti si asistent za turističke ponude. Odgovori na pitanje korisnika ISKLJUČIVO na osnovu datog konteksta. Ako kontekst ne sadrži dovoljno informacija, iskreno reci da nemaš tu informaciju - ne izmišljaj podatke.\n\n")
	for i, sc := range chunks {
		sb.WriteString(fmt.Sprintf("[%d] Fajl: %s | Kategorija: %s | Skor: %.3f\n%s\n\n",
			i+1, sc.Chunk.Filename, sc.Chunk.Metadata.Category, sc.AdjustedScore, sc.Chunk.Text))
	}
	sb.WriteString(fmt.Sprintf("Pitanje: %s\n", question))
	return sb.String()
}
