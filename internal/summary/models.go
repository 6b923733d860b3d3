// Package summary turns a weather snapshot into a short Hebrew forecast
// and a clothing recommendation, using an LLM when one is configured and
// a deterministic template otherwise.
package summary

// Summary is the human-readable digest of a snapshot.
// All three fields are always non-empty.
type Summary struct {
	Today    string `json:"today"`
	Tomorrow string `json:"tomorrow"`
	Clothing string `json:"clothing"`
}

// Source names the path that produced a summary.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Clothing recommendations, in priority order rain > hot > cold > neutral.
const (
	ClothingRainy   = "☂️ קח מטרייה ומעיל עמיד למים!"
	ClothingHot     = "👕 לבוש קל ונוח, אל תשכח קרם הגנה!"
	ClothingCold    = "🧥 שכבות חמות מומלצות, מעיל חובה!"
	ClothingNeutral = "👔 לבוש נוח ונייטרלי, טמפרטורה נעימה!"
)

const (
	// HotThreshold is the current temperature above which light clothing is advised.
	HotThreshold = 28.0

	// ColdThreshold is the current temperature below which warm layers are advised.
	ColdThreshold = 15.0
)
