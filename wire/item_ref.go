package wire

// ItemRef is the on-wire identity of a remote item: its handle and its cached kind.
// The zero value is the null reference.
type ItemRef struct {
	Handle uint64
	Kind   int32
}

// IsNull reports whether r refers to no item.
func (r ItemRef) IsNull() bool {
	return r.Handle == 0
}
