package variant

import (
	"fmt"

	"github.com/godot-re/gdre/gdreerr"
)

func errOutOfRange(idx uint32, n int) error {
	return gdreerr.New(gdreerr.CorruptData,
		fmt.Sprintf("string_pool index %d out of range (pool has %d entries)", idx, n))
}

func errUnknownTag(gen Generation, tag uint32) error {
	return gdreerr.New(gdreerr.CorruptData,
		fmt.Sprintf("unknown variant tag %#x for engine generation %s", tag, gen))
}

func errNotRepresentable(gen Generation, k Kind) error {
	return gdreerr.New(gdreerr.CorruptData,
		fmt.Sprintf("%s is not representable in engine generation %s", k, gen))
}
