package stats

import "github.com/ternarybob/narro/internal/models"

// bucket sums quantity and line revenue and tracks distinct order ids and product names
type bucket struct {
	quantity float64
	revenue  float64
	orders   map[string]struct{}
	products map[string]struct{}
}

// bucketSet keeps buckets keyed by label, remembering first-seen order
type bucketSet struct {
	keys    []string
	buckets map[string]*bucket
}

func newBucketSet() *bucketSet {
	return &bucketSet{buckets: make(map[string]*bucket)}
}

func (s *bucketSet) add(key string, row models.Row) {
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{
			orders:   make(map[string]struct{}),
			products: make(map[string]struct{}),
		}
		s.buckets[key] = b
		s.keys = append(s.keys, key)
	}

	b.quantity += row.Quantity
	b.revenue += row.LineRevenue()
	if row.OrderID != "" {
		b.orders[row.OrderID] = struct{}{}
	}
	if row.ProductName != "" {
		b.products[row.ProductName] = struct{}{}
	}
}

func (s *bucketSet) stats(key string) models.BucketStats {
	b, ok := s.buckets[key]
	if !ok {
		return models.BucketStats{}
	}
	return models.BucketStats{
		Quantity:       b.quantity,
		Revenue:        b.revenue,
		UniqueOrders:   len(b.orders),
		UniqueProducts: len(b.products),
	}
}
