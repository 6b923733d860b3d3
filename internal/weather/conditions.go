package weather

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionFog          Condition = "FOG"
	ConditionWind         Condition = "WIND"
	ConditionUnknown      Condition = "UNKNOWN"
)

// IsWet reports whether the condition implies precipitation of rain.
func (c Condition) IsWet() bool {
	return c == ConditionRain || c == ConditionDrizzle
}

// ConditionInfo is the display form of a provider weather code or phrase.
type ConditionInfo struct {
	Icon        string
	Description string
	Condition   Condition
}

// UnknownCondition is used for any code or phrase a table does not know.
var UnknownCondition = ConditionInfo{
	Icon:        "🌡️",
	Description: "לא ידוע",
	Condition:   ConditionUnknown,
}

// ConditionTable maps integer provider codes to display info.
type ConditionTable map[int]ConditionInfo

// Lookup returns the info for code, or UnknownCondition.
func (t ConditionTable) Lookup(code int) ConditionInfo {
	if info, ok := t[code]; ok {
		return info
	}
	return UnknownCondition
}

// RainCodes are the WMO codes treated as rain for clothing advice.
var RainCodes = map[int]bool{
	51: true, 53: true, 55: true,
	61: true, 63: true, 65: true,
	80: true, 81: true, 82: true,
}

// IsRaining reports whether current conditions call for rain gear.
// The WMO code decides when present; otherwise the coarse condition does.
func (c *CurrentConditions) IsRaining() bool {
	if c.WeatherCode != nil {
		return RainCodes[*c.WeatherCode]
	}
	return c.Condition.IsWet()
}
