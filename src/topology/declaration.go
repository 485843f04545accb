package topology

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ugorji/go/codec"
)

// NoChildren is the value declaring a node without children.
const NoChildren = "NO"

// Declaration is the static description of one node: its id and the ids of
// the children it intends to route to. Children may refer to ids that are not
// declared anywhere; such edges never resolve.
type Declaration struct {
	ID       uint32
	Children []uint32
}

// NewDeclaration returns a Declaration with a sorted, de-duplicated copy of
// children.
func NewDeclaration(id uint32, children []uint32) Declaration {
	return Declaration{
		ID:       id,
		Children: normalize(children),
	}
}

// HasChild ...
func (d Declaration) HasChild(child uint32) bool {
	for _, c := range d.Children {
		if c == child {
			return true
		}
	}
	return false
}

// WithChild returns a copy of the declaration with child added.
func (d Declaration) WithChild(child uint32) Declaration {
	return NewDeclaration(d.ID, append(append([]uint32{}, d.Children...), child))
}

// WithoutChild returns a copy of the declaration with child removed.
func (d Declaration) WithoutChild(child uint32) Declaration {
	res := make([]uint32, 0, len(d.Children))
	for _, c := range d.Children {
		if c != child {
			res = append(res, c)
		}
	}
	return Declaration{ID: d.ID, Children: res}
}

// ChildrenString formats the children the way they are declared in a
// topology file.
func (d Declaration) ChildrenString() string {
	if len(d.Children) == 0 {
		return NoChildren
	}
	parts := make([]string, len(d.Children))
	for i, c := range d.Children {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(parts, ",")
}

func (d Declaration) String() string {
	return fmt.Sprintf("%d=%s", d.ID, d.ChildrenString())
}

// Marshal encodes the declaration in canonical JSON.
func (d *Declaration) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(d); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (d *Declaration) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	if err := dec.Decode(d); err != nil {
		return err
	}
	if d.Children == nil {
		d.Children = []uint32{}
	}
	return nil
}

// ParseChildren parses a comma-separated list of child ids, or NO.
func ParseChildren(value string) ([]uint32, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty children list")
	}
	if value == NoChildren {
		return []uint32{}, nil
	}

	var children []uint32
	for _, tok := range strings.Split(value, ",") {
		id, err := ParseID(tok)
		if err != nil {
			return nil, err
		}
		children = append(children, id)
	}
	return normalize(children), nil
}

// ParseID parses a node id.
func ParseID(tok string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q: %w", tok, err)
	}
	return uint32(id), nil
}

func normalize(children []uint32) []uint32 {
	seen := make(map[uint32]bool, len(children))
	res := make([]uint32, 0, len(children))
	for _, c := range children {
		if !seen[c] {
			seen[c] = true
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// SortDeclarations sorts declarations by id.
func SortDeclarations(decls []Declaration) {
	sort.Slice(decls, func(i, j int) bool { return decls[i].ID < decls[j].ID })
}
