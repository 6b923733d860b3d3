package summary

import (
	"fmt"
	"strconv"

	"github.com/skycast/skycast/internal/weather"
)

const (
	noForecastToday    = "אין תחזית זמינה להמשך היום."
	noForecastTomorrow = "אין תחזית זמינה למחר."
)

// Fallback builds a summary from fixed templates. It is deterministic:
// the same snapshot always yields the same summary.
func Fallback(snap *weather.Snapshot) Summary {
	cur := snap.Current

	today := fmt.Sprintf("כיום ב%s %s עם %s°C.", snap.Location.Name, cur.Description, num(cur.Temperature))
	if len(snap.Daily) > 0 {
		d := snap.Daily[0]
		today += fmt.Sprintf(" הטמפרטורות ינועו בין %s° ל-%s°.", num(d.MinTemp), num(d.MaxTemp))
	} else {
		today += " " + noForecastToday
	}

	tomorrow := noForecastTomorrow
	if len(snap.Daily) > 1 {
		d := snap.Daily[1]
		tomorrow = fmt.Sprintf("מחר צפוי %s עם מקסימום של %s°C ומינימום של %s°C.",
			d.Description, num(d.MaxTemp), num(d.MinTemp))
	}

	return Summary{
		Today:    today,
		Tomorrow: tomorrow,
		Clothing: Clothing(&cur),
	}
}

// Clothing picks the recommendation for the current conditions.
func Clothing(cur *weather.CurrentConditions) string {
	switch {
	case cur.IsRaining():
		return ClothingRainy
	case cur.Temperature > HotThreshold:
		return ClothingHot
	case cur.Temperature < ColdThreshold:
		return ClothingCold
	default:
		return ClothingNeutral
	}
}

// num formats a number in its shortest form: 22 stays "22", 22.5 stays "22.5".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
