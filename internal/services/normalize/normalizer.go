package normalize

import (
	"sort"

	"github.com/ternarybob/narro/internal/models"
)

// Field names searched for on order-like objects. The first present key wins.
var (
	itemsKeys   = []string{"items", "products"}
	idKeys      = []string{"id"}
	totalKeys   = []string{"totalMoney", "calcTotalMoney", "total"}
	createdKeys = []string{"createdTimestamp", "createdDateTime", "createdDate"}
	nameKeys    = []string{"productName", "name"}
)

// Rows flattens every order found anywhere in payload into one row per line item.
// An order is any object carrying a list-valued items (or products) field. Orders may
// be nested inside other orders. Rows never fails: missing or malformed values default
// to zero or empty strings.
func Rows(payload any) []models.Row {
	var orders []map[string]any
	collectOrders(payload, &orders)

	rows := make([]models.Row, 0, len(orders))
	for _, order := range orders {
		items := itemsOf(order)
		if len(items) == 0 {
			continue
		}

		orderID := stringValue(lookup(order, idKeys))
		orderTotal := ParseNumber(lookup(order, totalKeys))
		created := stringValue(lookup(order, createdKeys))
		parts := ParseTimestamp(created)

		for _, raw := range items {
			item, _ := raw.(map[string]any)
			rows = append(rows, models.Row{
				OrderID:         orderID,
				OrderTotal:      orderTotal,
				ProductName:     stringValue(lookup(item, nameKeys)),
				Price:           ParseNumber(item["price"]),
				Quantity:        ParseNumber(item["quantity"]),
				CreatedDateTime: created,
				Date:            parts.Date,
				Time:            parts.Time,
				Hour:            parts.Hour,
				TimePeriod:      parts.Period,
			})
		}
	}

	return rows
}

// collectOrders walks maps in sorted key order so discovery is deterministic
func collectOrders(node any, orders *[]map[string]any) {
	switch v := node.(type) {
	case map[string]any:
		if itemsOf(v) != nil {
			*orders = append(*orders, v)
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectOrders(v[k], orders)
		}
	case []any:
		for _, child := range v {
			collectOrders(child, orders)
		}
	}
}

func lookup(m map[string]any, keys []string) any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func itemsOf(m map[string]any) []any {
	for _, k := range itemsKeys {
		if items, ok := m[k].([]any); ok {
			return items
		}
	}
	return nil
}
