package tariff

import "sort"

// missing or zero prices sort last within their category rather than
// floating to the top as the cheapest plan
const priceSentinel = 9999

func sortPrice(r Record) int {
	if r.Price <= 0 {
		return priceSentinel
	}
	return r.Price
}

// Aggregate groups records by category, preserving the order each
// category was first seen, then stable-sorts each group by price
// ascending and concatenates the groups back together. Ordering is a
// property of this view, not of the records themselves.
func Aggregate(records []Record) []Record {
	categories := []string{}
	grouped := map[string][]Record{}
	for _, r := range records {
		if _, ok := grouped[r.Category]; !ok {
			categories = append(categories, r.Category)
		}
		grouped[r.Category] = append(grouped[r.Category], r)
	}

	out := make([]Record, 0, len(records))
	for _, category := range categories {
		group := grouped[category]
		sort.SliceStable(group, func(i, j int) bool {
			return sortPrice(group[i]) < sortPrice(group[j])
		})
		out = append(out, group...)
	}
	return out
}
