package openmeteo

import "github.com/skycast/skycast/internal/weather"

// Conditions maps WMO weather interpretation codes to display info.
var Conditions = weather.ConditionTable{
	0:  {Icon: "☀️", Description: "שמיים בהירים", Condition: weather.ConditionClear},
	1:  {Icon: "🌤️", Description: "בהיר בעיקר", Condition: weather.ConditionClear},
	2:  {Icon: "⛅", Description: "מעונן חלקית", Condition: weather.ConditionClouds},
	3:  {Icon: "☁️", Description: "מעונן", Condition: weather.ConditionClouds},
	45: {Icon: "🌫️", Description: "ערפל", Condition: weather.ConditionFog},
	48: {Icon: "🌫️", Description: "ערפל קפוא", Condition: weather.ConditionFog},
	51: {Icon: "🌦️", Description: "טפטוף קל", Condition: weather.ConditionDrizzle},
	53: {Icon: "🌦️", Description: "טפטוף מתון", Condition: weather.ConditionDrizzle},
	55: {Icon: "🌧️", Description: "טפטוף כבד", Condition: weather.ConditionDrizzle},
	61: {Icon: "🌧️", Description: "גשם קל", Condition: weather.ConditionRain},
	63: {Icon: "🌧️", Description: "גשם מתון", Condition: weather.ConditionRain},
	65: {Icon: "🌧️", Description: "גשם כבד", Condition: weather.ConditionRain},
	71: {Icon: "❄️", Description: "שלג קל", Condition: weather.ConditionSnow},
	73: {Icon: "❄️", Description: "שלג מתון", Condition: weather.ConditionSnow},
	75: {Icon: "❄️", Description: "שלג כבד", Condition: weather.ConditionSnow},
	77: {Icon: "🌨️", Description: "גרגרי שלג", Condition: weather.ConditionSnow},
	80: {Icon: "🌦️", Description: "מטר קל", Condition: weather.ConditionRain},
	81: {Icon: "🌧️", Description: "מטר מתון", Condition: weather.ConditionRain},
	82: {Icon: "⛈️", Description: "מטר כבד", Condition: weather.ConditionRain},
	85: {Icon: "🌨️", Description: "מטר שלג קל", Condition: weather.ConditionSnow},
	86: {Icon: "🌨️", Description: "מטר שלג כבד", Condition: weather.ConditionSnow},
	95: {Icon: "⛈️", Description: "סופת רעמים", Condition: weather.ConditionThunderstorm},
	96: {Icon: "⛈️", Description: "סופת רעמים עם ברד", Condition: weather.ConditionThunderstorm},
	99: {Icon: "⛈️", Description: "סופת רעמים עם ברד כבד", Condition: weather.ConditionThunderstorm},
}
