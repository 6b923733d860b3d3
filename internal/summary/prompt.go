package summary

import (
	"fmt"
	"strings"

	"github.com/skycast/skycast/internal/weather"
)

// BuildPrompt renders the Hebrew weather-host prompt for a snapshot.
// The snapshot must carry at least two daily entries.
func BuildPrompt(snap *weather.Snapshot) string {
	cur := snap.Current
	today, tomorrow := snap.Daily[0], snap.Daily[1]

	var b strings.Builder
	b.WriteString("אתה מנחה מזג אוויר ישראלי ידידותי.\n")
	fmt.Fprintf(&b, "מזג האוויר כעת ב%s: %s, %s°C, רוח %s קמ\"ש.\n",
		snap.Location.Name, cur.Description, num(cur.Temperature), num(cur.WindSpeed))
	fmt.Fprintf(&b, "היום: מקסימום %s°C, מינימום %s°C, %s.\n",
		num(today.MaxTemp), num(today.MinTemp), today.Description)
	fmt.Fprintf(&b, "מחר: מקסימום %s°C, מינימום %s°C, %s.\n",
		num(tomorrow.MaxTemp), num(tomorrow.MinTemp), tomorrow.Description)
	b.WriteString(`
ענה בפורמט JSON בלבד (בלי markdown, בלי קוד blocks):
{
  "today": "2 שורות על מזג האוויר כעת והיום",
  "tomorrow": "2 שורות על מחר",
  "clothing": "המלצה קצרה מה ללבוש עכשיו"
}`)
	return b.String()
}
