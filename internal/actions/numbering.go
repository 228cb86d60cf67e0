package actions

import (
	"strconv"
	"time"

	"github.com/flywheels-garage/invoicebot/internal/schema"
)

// numberBase offsets the per-day counter so invoice numbers read like a
// running series on the printed paperwork.
const numberBase = 2000

// NextNumber derives a document number from the elapsed seconds since local
// midnight, offset by numberBase. Quotations carry a leading "Q". This is a
// convenience heuristic for small shops, not a uniqueness guarantee: two
// calls within the same second collide, and the range resets daily.
func NextNumber(kind schema.DocumentKind, t time.Time) string {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	secs := int(t.Sub(midnight) / time.Second)
	n := strconv.Itoa(numberBase + secs)
	if kind == schema.KindQuotation {
		return "Q" + n
	}
	return n
}
