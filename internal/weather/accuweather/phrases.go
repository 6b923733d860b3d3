package accuweather

import (
	"strings"

	"github.com/skycast/skycast/internal/weather"
)

// phraseRule matches an English AccuWeather phrase by keywords.
type phraseRule struct {
	// all keywords of one group must match; any group may match
	groups [][]string
	info   weather.ConditionInfo
}

func (r phraseRule) matches(phrase string) bool {
	for _, group := range r.groups {
		ok := true
		for _, kw := range group {
			if !strings.Contains(phrase, kw) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func anyOf(keywords ...string) [][]string {
	groups := make([][]string, len(keywords))
	for i, kw := range keywords {
		groups[i] = []string{kw}
	}
	return groups
}

// Rules are ordered and the first match wins. Storms and precipitation
// precede sky cover: "Partly sunny w/ t-storms" is a storm.
var phraseRules = []phraseRule{
	{
		groups: anyOf("thunder", "t-storm", "storm"),
		info:   weather.ConditionInfo{Icon: "⛈️", Description: "סופת רעמים", Condition: weather.ConditionThunderstorm},
	},
	{
		groups: anyOf("snow", "sleet", "blizzard", "flurries"),
		info:   weather.ConditionInfo{Icon: "❄️", Description: "שלג", Condition: weather.ConditionSnow},
	},
	{
		groups: [][]string{{"rain", "light"}, {"shower", "light"}, {"drizzle", "light"}, {"rain", "patchy"}, {"shower", "patchy"}, {"shower", "isolated"}, {"rain", "isolated"}},
		info:   weather.ConditionInfo{Icon: "🌦️", Description: "גשם קל", Condition: weather.ConditionRain},
	},
	{
		groups: [][]string{{"rain", "heavy"}, {"shower", "heavy"}, {"rain", "moderate"}, {"shower", "moderate"}, {"drizzle", "heavy"}},
		info:   weather.ConditionInfo{Icon: "🌧️", Description: "גשם כבד", Condition: weather.ConditionRain},
	},
	{
		groups: anyOf("drizzle"),
		info:   weather.ConditionInfo{Icon: "🌦️", Description: "גשם קל", Condition: weather.ConditionDrizzle},
	},
	{
		groups: anyOf("rain", "shower"),
		info:   weather.ConditionInfo{Icon: "🌧️", Description: "גשם", Condition: weather.ConditionRain},
	},
	{
		groups: anyOf("fog", "mist", "haze"),
		info:   weather.ConditionInfo{Icon: "🌫️", Description: "ערפל", Condition: weather.ConditionFog},
	},
	{
		groups: [][]string{{"partly", "cloud"}, {"partly", "sun"}, {"intermittent", "cloud"}},
		info:   weather.ConditionInfo{Icon: "⛅", Description: "מעונן חלקית", Condition: weather.ConditionClouds},
	},
	{
		groups: [][]string{{"mostly", "sun"}, {"mostly", "clear"}, {"hazy", "sun"}},
		info:   weather.ConditionInfo{Icon: "🌤️", Description: "בהיר בעיקר", Condition: weather.ConditionClear},
	},
	{
		groups: anyOf("sun", "clear"),
		info:   weather.ConditionInfo{Icon: "☀️", Description: "שמיים בהירים", Condition: weather.ConditionClear},
	},
	{
		groups: anyOf("cloud", "overcast", "dreary"),
		info:   weather.ConditionInfo{Icon: "☁️", Description: "מעונן", Condition: weather.ConditionClouds},
	},
	{
		groups: anyOf("ice", "freezing"),
		info:   weather.ConditionInfo{Icon: "🧊", Description: "כפור/קפיאה", Condition: weather.ConditionSnow},
	},
	{
		groups: anyOf("hot"),
		info:   weather.ConditionInfo{Icon: "🥵", Description: "חם", Condition: weather.ConditionClear},
	},
	{
		groups: anyOf("cold"),
		info:   weather.ConditionInfo{Icon: "🥶", Description: "קר", Condition: weather.ConditionClear},
	},
	{
		groups: anyOf("wind"),
		info:   weather.ConditionInfo{Icon: "💨", Description: "סוער", Condition: weather.ConditionWind},
	},
}

// LookupPhrase maps an AccuWeather phrase (WeatherText, IconPhrase) to display info.
// Unrecognized or empty phrases yield weather.UnknownCondition.
func LookupPhrase(phrase string) weather.ConditionInfo {
	p := strings.ToLower(strings.TrimSpace(phrase))
	if p == "" {
		return weather.UnknownCondition
	}
	for _, rule := range phraseRules {
		if rule.matches(p) {
			return rule.info
		}
	}
	return weather.UnknownCondition
}
