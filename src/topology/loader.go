package topology

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magiconair/properties"
)

// Load reads a topology file with one `<id>=<children>` line per node, where
// children is a comma-separated list of ids or NO. Any unreadable file,
// malformed id, or duplicate id is an error; there is no partial result.
func Load(path string) ([]Declaration, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology %s: %w", path, err)
	}
	decls, err := parse(buf)
	if err != nil {
		return nil, fmt.Errorf("topology %s: %w", path, err)
	}
	return decls, nil
}

// Parse reads a topology declaration from r.
func Parse(r io.Reader) ([]Declaration, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parse(buf)
}

func parse(buf []byte) ([]Declaration, error) {
	p, err := properties.Load(buf, properties.UTF8)
	if err != nil {
		return nil, err
	}

	// properties keeps the last value of a repeated key
	if err := checkDuplicateIDs(buf); err != nil {
		return nil, err
	}

	return fromProperties(p)
}

func fromProperties(p *properties.Properties) ([]Declaration, error) {
	seen := make(map[uint32]bool)
	var decls []Declaration

	for _, key := range p.Keys() {
		id, err := ParseID(key)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("node %d declared twice", id)
		}
		seen[id] = true

		value, _ := p.Get(key)
		children, err := ParseChildren(value)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}

		decls = append(decls, Declaration{ID: id, Children: children})
	}

	SortDeclarations(decls)

	return decls, nil
}

// checkDuplicateIDs scans the logical lines of a properties file and fails on
// the first id declared more than once. Keys that are not ids are left to
// fromProperties.
func checkDuplicateIDs(buf []byte) error {
	seen := make(map[uint32]bool)
	continued := false

	for _, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimRight(line, "\r")

		if continued {
			continued = endsWithEscape(line)
			continue
		}

		line = strings.TrimLeft(line, " \t\f")
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		continued = endsWithEscape(line)

		id, err := ParseID(lineKey(line))
		if err != nil {
			continue
		}
		if seen[id] {
			return fmt.Errorf("node %d declared twice", id)
		}
		seen[id] = true
	}

	return nil
}

// lineKey returns the unescaped key of a property line.
func lineKey(line string) string {
	var key strings.Builder
	escaped := false

	for _, r := range line {
		if escaped {
			key.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '=', ':', ' ', '\t', '\f':
			return key.String()
		default:
			key.WriteRune(r)
		}
	}

	return key.String()
}

// endsWithEscape reports whether a line ends with an odd number of
// backslashes, which joins it with the next one.
func endsWithEscape(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
