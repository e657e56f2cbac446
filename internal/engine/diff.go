package engine

// collectionDiff is the outcome of comparing the previous collection with
// the next full collection the UI wants.
type collectionDiff[T any] struct {
	insert  *T
	updates []T
	deletes []string
}

// diffByID infers remote operations from two versions of a collection by
// comparing lengths and identifiers: a longer next collection means the one
// element absent from prev is an insert; a shorter one means every prev
// identifier missing from next is a delete; equal lengths mean a field
// comparison on each identifier present in both.
//
// Known limitation, kept deliberately: a simultaneous add and delete within
// one call is indistinguishable from an update and will be mis-inferred.
// The UI issues one structural change per call, and the next hydrate
// repairs anything the inference got wrong.
func diffByID[T any](prev, next []T, id func(T) string, changed func(old, new T) bool) collectionDiff[T] {
	var d collectionDiff[T]

	prevByID := make(map[string]T, len(prev))
	for _, p := range prev {
		prevByID[id(p)] = p
	}

	switch {
	case len(next) > len(prev):
		for i := range next {
			if _, ok := prevByID[id(next[i])]; !ok {
				d.insert = &next[i]
				return d
			}
		}
	case len(next) < len(prev):
		nextIDs := make(map[string]bool, len(next))
		for _, n := range next {
			nextIDs[id(n)] = true
		}
		for _, p := range prev {
			if !nextIDs[id(p)] {
				d.deletes = append(d.deletes, id(p))
			}
		}
	default:
		for _, n := range next {
			if old, ok := prevByID[id(n)]; ok && changed(old, n) {
				d.updates = append(d.updates, n)
			}
		}
	}
	return d
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
