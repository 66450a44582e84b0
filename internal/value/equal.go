package value

// Equal reports structural equality. Object member order is ignored; array
// element order is not.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.n == b.n
	case String:
		return a.s == b.s
	case Array:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for pair := a.obj.Oldest(); pair != nil; pair = pair.Next() {
			other, ok := b.obj.Get(pair.Key)
			if !ok || !Equal(pair.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// IdenticalOrder is Equal that also requires object members to appear in the
// same order at every level.
func IdenticalOrder(a, b *Value) bool {
	if !Equal(a, b) {
		return false
	}
	switch a.Kind() {
	case Array:
		for i := range a.items {
			if !IdenticalOrder(a.items[i], b.items[i]) {
				return false
			}
		}
	case Object:
		pa, pb := a.obj.Oldest(), b.obj.Oldest()
		for pa != nil && pb != nil {
			if pa.Key != pb.Key || !IdenticalOrder(pa.Value, pb.Value) {
				return false
			}
			pa, pb = pa.Next(), pb.Next()
		}
	}
	return true
}
