package plan

import "strings"

// healthConditionKeywords trigger plan detection on a user message
var healthConditionKeywords = []string{
	// Pain conditions
	"back pain", "neck pain", "shoulder pain", "knee pain", "hip pain", "joint pain",
	"headache", "migraine", "muscle pain", "chronic pain", "sciatica",
	"pain", "ache", "aching", "hurt", "hurts", "hurting", "sore", "soreness",

	// Mobility/physical issues
	"stiff", "stiffness", "mobility", "flexibility", "range of motion", "posture",
	"injured", "injury", "sprain", "strain", "pulled muscle", "tight muscles",

	// Mental health/stress
	"stress", "stressed", "anxiety", "anxious", "depression", "depressed",
	"overwhelmed", "burnout", "sleep problems", "insomnia", "tired", "fatigue",
	"mental health", "mood", "irritable", "restless",

	// Fitness/recovery
	"fitness goals", "weight loss", "strength training", "cardio",
	"recovery", "rehabilitation", "physical therapy", "exercise",
	"workout", "training", "fitness",

	// Chronic conditions
	"diabetes", "hypertension", "high blood pressure", "cholesterol",
	"arthritis", "fibromyalgia", "chronic fatigue", "chronic condition",

	// General symptoms
	"dizzy", "nausea", "weakness", "swollen", "inflammation",
	"breathing problems", "chest pain", "irregular heartbeat",
}

// progressKeywords mark a message as progress tracking rather than a new
// condition report
var progressKeywords = []string{
	"mark", "progress", "completed", "finished", "done", "update", "track",
}

// deactivationKeywords mark a message as a request to stop a plan
var deactivationKeywords = []string{
	"deactivate", "stop", "quit", "cancel", "inactive", "don't want", "no longer", "end",
}

// HasConditionKeywords reports whether the text mentions a health
// condition that may warrant a plan
func HasConditionKeywords(text string) bool {
	return containsAny(text, healthConditionKeywords)
}

// IsProgressRequest reports whether the text is about tracking progress
func IsProgressRequest(text string) bool {
	return containsAny(text, progressKeywords)
}

// IsDeactivationRequest reports whether the text asks to stop a plan
func IsDeactivationRequest(text string) bool {
	return containsAny(text, deactivationKeywords)
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// significantWords returns the lowercase words of the text longer than
// three characters. Plan matching ignores short filler words.
func significantWords(text string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// mentionsAnyWord reports whether the text contains any of the words
func mentionsAnyWord(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
