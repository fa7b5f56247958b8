package models

// TimePeriod is the coarse time-of-day bucket of an order line
type TimePeriod string

const (
	PeriodMorning   TimePeriod = "Morning (6-12)"
	PeriodAfternoon TimePeriod = "Afternoon (12-18)"
	PeriodEvening   TimePeriod = "Evening (18-22)"
	PeriodNight     TimePeriod = "Night (22-6)"
	PeriodUnknown   TimePeriod = "Unknown"
)

// NamedPeriods lists the four real periods in canonical order
var NamedPeriods = []TimePeriod{PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodNight}

// PeriodForHour maps an hour of day to its period.
// [6,12) Morning, [12,18) Afternoon, [18,22) Evening, everything else Night.
func PeriodForHour(hour int) TimePeriod {
	switch {
	case hour >= 6 && hour < 12:
		return PeriodMorning
	case hour >= 12 && hour < 18:
		return PeriodAfternoon
	case hour >= 18 && hour < 22:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

// Row is one (order, line item) pair flattened out of a raw payload.
// Date, Time and Hour are empty when the order timestamp could not be parsed.
type Row struct {
	OrderID         string     `json:"order_id"`
	OrderTotal      float64    `json:"order_total"`
	ProductName     string     `json:"product_name"`
	Price           float64    `json:"price"`
	Quantity        float64    `json:"quantity"`
	CreatedDateTime string     `json:"created_datetime"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	Hour            string     `json:"hour"`
	TimePeriod      TimePeriod `json:"time_period"`
}

// LineRevenue is price times quantity for the row
func (r Row) LineRevenue() float64 {
	return r.Price * r.Quantity
}
