package accuweather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/accuweather"
)

func TestLookupPhrase(t *testing.T) {
	tests := []struct {
		phrase      string
		description string
		condition   weather.Condition
	}{
		{"Sunny", "שמיים בהירים", weather.ConditionClear},
		{"Clear", "שמיים בהירים", weather.ConditionClear},
		{"Mostly sunny", "בהיר בעיקר", weather.ConditionClear},
		{"Mostly clear", "בהיר בעיקר", weather.ConditionClear},
		{"Partly sunny", "מעונן חלקית", weather.ConditionClouds},
		{"Partly cloudy", "מעונן חלקית", weather.ConditionClouds},
		{"Intermittent clouds", "מעונן חלקית", weather.ConditionClouds},
		{"Cloudy", "מעונן", weather.ConditionClouds},
		{"Dreary (Overcast)", "מעונן", weather.ConditionClouds},
		{"Fog", "ערפל", weather.ConditionFog},
		{"Showers", "גשם", weather.ConditionRain},
		{"Rain", "גשם", weather.ConditionRain},
		{"Light rain", "גשם קל", weather.ConditionRain},
		{"Heavy rain", "גשם כבד", weather.ConditionRain},
		{"Drizzle", "גשם קל", weather.ConditionDrizzle},
		{"Mostly cloudy w/ showers", "גשם", weather.ConditionRain},
		{"Thunderstorms", "סופת רעמים", weather.ConditionThunderstorm},
		{"Partly sunny w/ t-storms", "סופת רעמים", weather.ConditionThunderstorm},
		{"Snow", "שלג", weather.ConditionSnow},
		{"Flurries", "שלג", weather.ConditionSnow},
		{"Sleet", "שלג", weather.ConditionSnow},
		{"Ice", "כפור/קפיאה", weather.ConditionSnow},
		{"Hot", "חם", weather.ConditionClear},
		{"Cold", "קר", weather.ConditionClear},
		{"Windy", "סוער", weather.ConditionWind},
		{"  SUNNY  ", "שמיים בהירים", weather.ConditionClear},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			info := accuweather.LookupPhrase(tt.phrase)
			assert.Equal(t, tt.description, info.Description)
			assert.Equal(t, tt.condition, info.Condition)
			assert.NotEmpty(t, info.Icon)
		})
	}
}

func TestLookupPhrase_Unknown(t *testing.T) {
	for _, phrase := range []string{"", "   ", "Volcanic ash", "???"} {
		assert.Equal(t, weather.UnknownCondition, accuweather.LookupPhrase(phrase), "phrase %q", phrase)
	}
}
