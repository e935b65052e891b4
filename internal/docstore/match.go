package docstore

import "sort"

// Evaluation of queries against in-process documents, following Firestore
// semantics: a document missing a filtered or ordered field never matches,
// range operators only compare values of the same type, and != / not-in
// skip null values.

func matchesAll(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !matchFilter(doc, f) {
			return false
		}
	}
	return true
}

func matchFilter(doc Document, f Filter) bool {
	var val interface{}
	if f.Field == FieldID {
		val = doc.ID
	} else {
		v, ok := doc.Data[f.Field]
		if !ok {
			return false
		}
		val = v
	}
	want := Normalize(f.Value)

	switch f.Op {
	case OpEqual:
		return valuesEqual(val, want)
	case OpNotEqual:
		return val != nil && !valuesEqual(val, want)
	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		if typeRank(val) != typeRank(want) {
			return false
		}
		c := compareValues(val, want)
		switch f.Op {
		case OpLess:
			return c < 0
		case OpLessOrEqual:
			return c <= 0
		case OpGreater:
			return c > 0
		}
		return c >= 0
	case OpArrayContains:
		arr, ok := val.([]interface{})
		return ok && containsValue(arr, want)
	case OpArrayContainsAny:
		arr, ok := val.([]interface{})
		if !ok {
			return false
		}
		for _, w := range asList(want) {
			if containsValue(arr, w) {
				return true
			}
		}
		return false
	case OpIn:
		return containsValue(asList(want), val)
	case OpNotIn:
		return val != nil && !containsValue(asList(want), val)
	}
	return false
}

func asList(v interface{}) []interface{} {
	if l, ok := v.([]interface{}); ok {
		return l
	}
	return nil
}

func containsValue(list []interface{}, v interface{}) bool {
	for _, e := range list {
		if valuesEqual(e, v) {
			return true
		}
	}
	return false
}

func hasOrderFields(doc Document, orders []Order) bool {
	for _, o := range orders {
		if o.Field == FieldID {
			continue
		}
		if _, ok := doc.Data[o.Field]; !ok {
			return false
		}
	}
	return true
}

func compareDocs(a, b Document, orders []Order) int {
	for _, o := range orders {
		c := compareValues(fieldValue(a, o.Field), fieldValue(b, o.Field))
		if o.Dir == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// afterCursor reports whether doc sorts strictly after the cursor position.
func afterCursor(doc Document, c *Cursor, orders []Order) bool {
	for i, o := range orders {
		var cv interface{}
		if i < len(c.Values) {
			cv = Normalize(c.Values[i])
		} else {
			cv = c.ID
		}
		cmp := compareValues(fieldValue(doc, o.Field), cv)
		if o.Dir == Descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp > 0
		}
	}
	return false
}

// evaluate runs q over docs. docs is not modified.
func evaluate(docs []Document, q Query) []Document {
	orders := q.SortOrders()
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if matchesAll(d, q.Where) && hasOrderFields(d, orders) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compareDocs(out[i], out[j], orders) < 0
	})
	if q.StartAfter != nil {
		kept := out[:0]
		for _, d := range out {
			if afterCursor(d, q.StartAfter, orders) {
				kept = append(kept, d)
			}
		}
		out = kept
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
