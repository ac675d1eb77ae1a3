package schema

import (
	"fmt"
	"strings"
)

// Lookup resolves a dotted property path to its schema node.
//
// Inside a discriminator the tag resolves to a string and any other segment
// resolves against the first branch (in tag order) declaring it. Inside a
// values map every segment is a key. Arrays cannot be traversed.
func (f Fields) Lookup(path string) (Node, error) {
	segs := strings.Split(path, ".")
	cur, ok := f[segs[0]]
	if !ok {
		return nil, fmt.Errorf("unknown property %q", segs[0])
	}

	for i, seg := range segs[1:] {
		at := strings.Join(segs[:i+1], ".")
		switch node := cur.(type) {
		case Properties:
			next, ok := node.Fields[seg]
			if !ok {
				return nil, fmt.Errorf("unknown property %q in %q", seg, at)
			}
			cur = next
		case Ref:
			next, ok := node.Fields.withID()[seg]
			if !ok {
				return nil, fmt.Errorf("unknown property %q in %q", seg, at)
			}
			cur = next
		case Discriminator:
			if seg == node.Tag {
				cur = String
				continue
			}
			var found Node
			for _, tag := range node.sortedTags() {
				if n, ok := node.Mapping[tag][seg]; ok {
					found = n
					break
				}
			}
			if found == nil {
				return nil, fmt.Errorf("unknown property %q in %q", seg, at)
			}
			cur = found
		case Values:
			cur = node.Of
		default:
			return nil, fmt.Errorf("property %q has no sub-properties", at)
		}
	}
	return cur, nil
}
