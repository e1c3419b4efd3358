package restext

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/resource"
	"github.com/godot-re/gdre/variant"
)

// sceneState is PackedScene's "_bundled" Dictionary unpacked into its
// node/connection/editable-instance tables. The retrieved pack only
// carries the text-side consumer (SceneState accessor calls in
// resource_compat_text.cpp); the binary _bundled layout here follows
// Godot's well-known scene_state.cpp encoding: a shared names/variants
// pool plus flat int arrays describing each node and connection.
type sceneState struct {
	names    []string
	variants []variant.Variant

	nodeParent []int32
	nodeOwner  []int32
	nodeType   []int32
	nodeName   []int32
	nodeIndex  []int32
	nodeGroups [][]int32
	nodeProps  [][2]int32 // flattened (name_idx, variant_idx) per node, see propStart/propCount
	propStart  []int      // start offset into nodeProps for node i
	propCount  []int

	connSource []int32
	connTarget []int32
	connSignal []int32
	connMethod []int32
	connFlags  []int32
	connUnbind []int32
	connBinds  [][]int32

	editableInstances []variant.NodePath
}

const nodeFlagHasGroups = 1 << 30

func parseSceneState(bundle *variant.Dictionary) (*sceneState, error) {
	s := &sceneState{}

	namesV, ok := bundle.Get(variant.String("names"))
	if !ok {
		return nil, gdreerr.New(gdreerr.CorruptData, "_bundled dictionary missing \"names\"")
	}
	names, ok := namesV.Value.([]string)
	if !ok {
		return nil, gdreerr.New(gdreerr.CorruptData, "_bundled \"names\" is not a string array")
	}
	s.names = names

	if variantsV, ok := bundle.Get(variant.String("variants")); ok {
		if arr, ok := variantsV.Value.(*variant.Array); ok {
			s.variants = arr.Items
		}
	}

	nodesV, ok := bundle.Get(variant.String("nodes"))
	if ok {
		nodes, _ := nodesV.Value.([]int32)
		if err := s.unpackNodes(nodes); err != nil {
			return nil, err
		}
	}

	connsV, ok := bundle.Get(variant.String("conns"))
	if ok {
		conns, _ := connsV.Value.([]int32)
		if err := s.unpackConns(conns); err != nil {
			return nil, err
		}
	}

	if eiV, ok := bundle.Get(variant.String("editable_instances")); ok {
		if arr, ok := eiV.Value.(*variant.Array); ok {
			for _, item := range arr.Items {
				if np, ok := item.Value.(variant.NodePath); ok {
					s.editableInstances = append(s.editableInstances, np)
				}
			}
		}
	}

	return s, nil
}

// unpackNodes walks the flat "nodes" int array: each record is
// (parent, owner, type, name_with_flags, index, prop_count,
// [group_count, group*] when name_with_flags has nodeFlagHasGroups,
// (name,value)*).
func (s *sceneState) unpackNodes(nodes []int32) error {
	i := 0
	for i < len(nodes) {
		if i+6 > len(nodes) {
			return gdreerr.New(gdreerr.CorruptData, "truncated node record in _bundled \"nodes\"")
		}
		s.nodeParent = append(s.nodeParent, nodes[i])
		s.nodeOwner = append(s.nodeOwner, nodes[i+1])
		s.nodeType = append(s.nodeType, nodes[i+2])
		nameWord := nodes[i+3]
		s.nodeIndex = append(s.nodeIndex, nodes[i+4])
		propCount := int(nodes[i+5])
		i += 6

		var groups []int32
		if nameWord&nodeFlagHasGroups != 0 {
			if i >= len(nodes) {
				return gdreerr.New(gdreerr.CorruptData, "truncated group count in _bundled \"nodes\"")
			}
			groupCount := int(nodes[i])
			i++
			for g := 0; g < groupCount; g++ {
				if i >= len(nodes) {
					return gdreerr.New(gdreerr.CorruptData, "truncated group list in _bundled \"nodes\"")
				}
				groups = append(groups, nodes[i])
				i++
			}
		}
		s.nodeName = append(s.nodeName, nameWord&^nodeFlagHasGroups)
		s.nodeGroups = append(s.nodeGroups, groups)

		start := len(s.nodeProps)
		for p := 0; p < propCount; p++ {
			if i+2 > len(nodes) {
				return gdreerr.New(gdreerr.CorruptData, "truncated property pair in _bundled \"nodes\"")
			}
			s.nodeProps = append(s.nodeProps, [2]int32{nodes[i], nodes[i+1]})
			i += 2
		}
		s.propStart = append(s.propStart, start)
		s.propCount = append(s.propCount, propCount)
	}
	return nil
}

// unpackConns walks the flat "conns" int array: each record is
// (from, to, signal, method, flags, unbinds, bind_count, bind_idx*).
func (s *sceneState) unpackConns(conns []int32) error {
	i := 0
	for i < len(conns) {
		if i+7 > len(conns) {
			return gdreerr.New(gdreerr.CorruptData, "truncated connection record in _bundled \"conns\"")
		}
		s.connSource = append(s.connSource, conns[i])
		s.connTarget = append(s.connTarget, conns[i+1])
		s.connSignal = append(s.connSignal, conns[i+2])
		s.connMethod = append(s.connMethod, conns[i+3])
		s.connFlags = append(s.connFlags, conns[i+4])
		s.connUnbind = append(s.connUnbind, conns[i+5])
		bindCount := int(conns[i+6])
		i += 7
		binds := make([]int32, bindCount)
		for b := 0; b < bindCount; b++ {
			if i >= len(conns) {
				return gdreerr.New(gdreerr.CorruptData, "truncated bind list in _bundled \"conns\"")
			}
			binds[b] = conns[i]
			i++
		}
		s.connBinds = append(s.connBinds, binds)
	}
	return nil
}

func (s *sceneState) name(idx int32) string {
	if idx < 0 || int(idx) >= len(s.names) {
		return ""
	}
	return s.names[idx]
}

func (s *sceneState) variantAt(idx int32) variant.Variant {
	if idx < 0 || int(idx) >= len(s.variants) {
		return variant.Nil
	}
	return s.variants[idx]
}

// writeSceneSections renders [node], [connection], and [editable] sections
// from the main resource's "_bundled" PackedScene state.
func writeSceneSections(w io.Writer, p *printer, main *resource.InternalResource) error {
	if main.Properties == nil {
		return nil
	}
	bundleV, ok := main.Properties.Get(variant.StringName("_bundled"))
	if !ok {
		return nil
	}
	bundle, ok := bundleV.Value.(*variant.Dictionary)
	if !ok {
		return nil
	}
	state, err := parseSceneState(bundle)
	if err != nil {
		return err
	}

	for i := range state.nodeParent {
		name := state.name(state.nodeName[i])
		typeName := state.name(state.nodeType[i])
		header := fmt.Sprintf("[node name=%s", quoteGDString(name))
		if typeName != "" {
			header += fmt.Sprintf(" type=%q", typeName)
		}
		if state.nodeParent[i] != -1 {
			header += fmt.Sprintf(" parent=%s", quoteGDString(state.name(state.nodeParent[i])))
		}
		if state.nodeOwner[i] != -1 {
			header += fmt.Sprintf(" owner=%s", quoteGDString(state.name(state.nodeOwner[i])))
		}
		if state.nodeIndex[i] >= 0 {
			header += fmt.Sprintf(" index=\"%d\"", state.nodeIndex[i])
		}
		if groups := state.nodeGroups[i]; len(groups) > 0 {
			names := make([]string, len(groups))
			for j, g := range groups {
				names[j] = state.name(g)
			}
			sort.Strings(names)
			parts := make([]string, len(names))
			for j, n := range names {
				parts[j] = quoteGDString(n)
			}
			header += " groups=[" + strings.Join(parts, ", ") + "]"
		}
		header += "]"
		if _, err := io.WriteString(w, header+"\n"); err != nil {
			return err
		}

		start, count := state.propStart[i], state.propCount[i]
		for j := start; j < start+count; j++ {
			pair := state.nodeProps[j]
			propName := state.name(pair[0])
			if _, err := fmt.Fprintf(w, "%s = ", propertyName(propName)); err != nil {
				return err
			}
			if err := writeVariant(w, p, state.variantAt(pair[1])); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	for i := range state.connSource {
		conn := fmt.Sprintf("[connection signal=%s from=%s to=%s method=%s",
			quoteGDString(state.name(state.connSignal[i])),
			quoteGDString(state.name(state.connSource[i])),
			quoteGDString(state.name(state.connTarget[i])),
			quoteGDString(state.name(state.connMethod[i])))
		const connectPersist = 1
		if state.connFlags[i] != connectPersist {
			conn += fmt.Sprintf(" flags=%d", state.connFlags[i])
		}
		if state.connUnbind[i] > 0 {
			conn += fmt.Sprintf(" unbinds=%d", state.connUnbind[i])
		}
		if _, err := io.WriteString(w, conn); err != nil {
			return err
		}
		if len(state.connBinds[i]) > 0 {
			if _, err := io.WriteString(w, " binds= [ "); err != nil {
				return err
			}
			for j, b := range state.connBinds[i] {
				if j > 0 {
					if _, err := io.WriteString(w, ", "); err != nil {
						return err
					}
				}
				if err := writeVariant(w, p, state.variantAt(b)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, " ]"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "]\n"); err != nil {
			return err
		}
	}

	for _, np := range state.editableInstances {
		if _, err := fmt.Fprintf(w, "[editable path=%s]\n", quoteGDString(nodePathString(np))); err != nil {
			return err
		}
	}

	return nil
}
