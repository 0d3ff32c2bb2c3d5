package uthread

// sleepTable maps a sleeping thread id to its strictly positive "quanta
// remaining" counter. A thread id appears here iff its state is Sleeping.
type sleepTable map[ThreadID]int

// age decrements every entry by one and returns the ids whose counter
// reached zero, in the order encountered. It iterates a snapshot of the
// keys rather than the live map, so the caller is free to delete the
// current entry mid-iteration without the undefined iteration order a
// range over the live map under concurrent modification would have.
func (st sleepTable) age() []ThreadID {
	ids := make([]ThreadID, 0, len(st))
	for id := range st {
		ids = append(ids, id)
	}
	var woken []ThreadID
	for _, id := range ids {
		st[id]--
		if st[id] <= 0 {
			delete(st, id)
			woken = append(woken, id)
		}
	}
	return woken
}
