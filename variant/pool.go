package variant

// StringTable resolves the shared string_pool a resource/scene file
// attaches to its NodePath names and subnames (spec: "Names are indices
// into the enclosing resource's string_pool"). Codec.Strings is
// optional: when nil, NodePath names are read/written as inline padded
// strings instead, the layout used outside a resource file (bytecode
// constants, project-config values, standalone RPC-style Variants).
type StringTable interface {
	Lookup(idx uint32) (string, error)
	Intern(s string) uint32
}

// SimpleStringTable is a StringTable backed by a growable, order-preserving
// slice, suitable for both reading an existing string_pool and building one
// up while writing a new resource file.
type SimpleStringTable struct {
	Strings []string
	index   map[string]uint32
}

// NewSimpleStringTable returns a table pre-seeded with strings (as read
// from a resource file's string_pool), or empty for building one while
// writing.
func NewSimpleStringTable(strings []string) *SimpleStringTable {
	t := &SimpleStringTable{Strings: append([]string(nil), strings...)}
	t.reindex()
	return t
}

func (t *SimpleStringTable) reindex() {
	t.index = make(map[string]uint32, len(t.Strings))
	for i, s := range t.Strings {
		t.index[s] = uint32(i)
	}
}

// Lookup implements StringTable.
func (t *SimpleStringTable) Lookup(idx uint32) (string, error) {
	if int(idx) >= len(t.Strings) {
		return "", errOutOfRange(idx, len(t.Strings))
	}
	return t.Strings[idx], nil
}

// Intern implements StringTable: it returns the existing index for s, or
// appends s and returns its new index.
func (t *SimpleStringTable) Intern(s string) uint32 {
	if t.index == nil {
		t.reindex()
	}
	if idx, ok := t.index[s]; ok {
		return idx
	}
	idx := uint32(len(t.Strings))
	t.Strings = append(t.Strings, s)
	t.index[s] = idx
	return idx
}
