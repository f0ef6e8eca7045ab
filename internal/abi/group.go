package abi

import orderedmap "github.com/wk8/go-ordered-map/v2"

// groupByName keys items by name in declaration order. The second use of a
// name is an error; nothing is ever overwritten.
func groupByName[T any](items []T, name func(T) string, namespace string) (*orderedmap.OrderedMap[string, T], error) {
	grouped := orderedmap.New[string, T]()
	for _, item := range items {
		n := name(item)
		if _, exists := grouped.Get(n); exists {
			return nil, duplicateName(n, namespace)
		}
		grouped.Set(n, item)
	}
	return grouped, nil
}

// groupByType partitions entries by their type discriminant, keeping order.
func groupByType(entries []Entry) map[EntryType][]Entry {
	grouped := make(map[EntryType][]Entry)
	for _, e := range entries {
		grouped[e.Type] = append(grouped[e.Type], e)
	}
	return grouped
}
