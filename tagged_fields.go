package kafkad

import "sort"

// taggedField is one entry of a KIP-482 tagged-field block: an unsigned
// varint key paired with the raw payload bytes. Unknown keys are carried
// verbatim so a message that is decoded and re-encoded keeps extensions it
// does not understand.
type taggedField struct {
	key  uint32
	data []byte
}

func sortTaggedFields(in []taggedField) {
	sort.Slice(in, func(i, j int) bool { return in[i].key < in[j].key })
}

// taggedFieldData returns the payload for key, or nil if the set has no such
// entry.
func taggedFieldData(in []taggedField, key uint32) []byte {
	for i := range in {
		if in[i].key == key {
			return in[i].data
		}
	}
	return nil
}
