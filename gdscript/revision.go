package gdscript

import (
	"sync"

	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/variant"
)

// Revision is everything the decoder and disassembler need that varies
// release-to-release: the Variant generation constants decode as, the
// highest GDSC container version this revision accepts, and the builtin
// function/type name tables a BUILT_IN_FUNC/BUILT_IN_TYPE token's payload
// indexes into. Real Godot keeps one such table per engine commit, keyed
// by a 32-bit hex literal derived from that commit's hash (§4.8); the
// registry here is kept open for a caller to add one entry per commit it
// cares about rather than hard-coding a single revision into the decoder.
type Revision struct {
	ID                uint32
	Name              string
	MaxVersion        uint32
	VariantGeneration variant.Generation
	BuiltinFuncs      []BuiltinFunc
	BuiltinTypes      []string
}

// BuiltinFunc returns the table entry for a BUILT_IN_FUNC token's payload
// index, or false if the index is out of range for this revision.
func (rev *Revision) BuiltinFunc(idx uint32) (BuiltinFunc, bool) {
	if int(idx) >= len(rev.BuiltinFuncs) {
		return BuiltinFunc{}, false
	}
	return rev.BuiltinFuncs[idx], true
}

// BuiltinType returns the type name for a BUILT_IN_TYPE token's payload
// index, or "" if the index is out of range for this revision.
func (rev *Revision) BuiltinType(idx uint32) string {
	if int(idx) >= len(rev.BuiltinTypes) {
		return ""
	}
	return rev.BuiltinTypes[idx]
}

var (
	registryMu sync.RWMutex
	registry   = map[uint32]*Revision{}
)

// RegisterRevision adds rev to the process-wide revision registry, keyed
// by rev.ID. Registering the same ID twice replaces the earlier entry.
func RegisterRevision(rev *Revision) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[rev.ID] = rev
}

// LookupRevision returns the registered revision for id.
func LookupRevision(id uint32) (*Revision, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	rev, ok := registry[id]
	if !ok {
		return nil, gdreerr.New(gdreerr.UnknownRevision, "no registered bytecode revision for this id")
	}
	return rev, nil
}

// Legacy and Modern are the two revisions this package ships out of the
// box: Legacy covers the pre-3.0 (V2 Variant generation) compiler output,
// Modern covers 3.x/4.x output. bruvzg/gdsdecomp ships one concrete
// Revision per engine commit it reverse-engineered (a per-commit .h/.cpp
// pair under bytecode/); the retrieved reference pack carried only the
// shared get_ids_consts_tokens decoder and the builtin-function table, not
// those per-commit identifier/keyword diffs, so these two stand in as a
// representative legacy/modern pair rather than a byte-exact reproduction
// of every historical commit. A caller targeting a specific shipped game
// registers the exact revision for the engine build that produced it.
var (
	Legacy = &Revision{
		ID:                0x2d0c0a9,
		Name:              "legacy-v2",
		MaxVersion:        13,
		VariantGeneration: variant.V2,
		BuiltinFuncs:      builtinFuncsV3[:len(builtinFuncsV3)-1], // pre-4.0 lacked get_inst
		BuiltinTypes:      builtinTypesV3[:len(builtinTypesV3)-4], // no packed array split yet
	}
	Modern = &Revision{
		ID:                0xa7a0aab,
		Name:              "modern-v3v4",
		MaxVersion:        100,
		VariantGeneration: variant.V3,
		BuiltinFuncs:      builtinFuncsV3,
		BuiltinTypes:      builtinTypesV3,
	}
)

func init() {
	RegisterRevision(Legacy)
	RegisterRevision(Modern)
}
