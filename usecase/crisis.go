package usecase

import "strings"

var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"want to die",
	"harm myself",
	"self harm",
	"emergency",
	"crisis",
	"आत्महत्या",
	"खुदकुशी",
	"मरना चाहता हूं",
	"जीना नहीं चाहता",
	"खुद को नुकसान",
}

// DetectCrisis reports whether any of texts contains a crisis keyword
func DetectCrisis(texts ...string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, keyword := range crisisKeywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}

// CrisisContact is one hotline or website
type CrisisContact struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// CrisisResources is the static help panel shown when a crisis is detected
type CrisisResources struct {
	Title         string          `json:"title"`
	Introduction  string          `json:"introduction"`
	Hotlines      []CrisisContact `json:"hotlines"`
	Online        []CrisisContact `json:"online"`
	EmergencyNote string          `json:"emergency_note"`
}

// Resources returns the crisis panel content
func Resources() CrisisResources {
	return CrisisResources{
		Title:        "Crisis Support",
		Introduction: "If you're experiencing a mental health emergency, please reach out for immediate help.",
		Hotlines: []CrisisContact{
			{Name: "National Suicide Prevention Lifeline", Contact: "988 or 1-800-273-8255"},
			{Name: "Crisis Text Line", Contact: "Text HOME to 741741"},
			{Name: "Veterans Crisis Line", Contact: "988, then press 1"},
		},
		Online: []CrisisContact{
			{Name: "SAMHSA Treatment Locator", Contact: "findtreatment.samhsa.gov"},
			{Name: "National Alliance on Mental Illness", Contact: "nami.org/help"},
			{Name: "International Association for Suicide Prevention", Contact: "iasp.info/resources"},
		},
		EmergencyNote: "Remember: If you or someone else is in immediate danger, please call emergency services (911 in the US) right away.",
	}
}
