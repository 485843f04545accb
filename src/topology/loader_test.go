package topology

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	decls, err := Load("testdata/topology.properties")
	if err != nil {
		t.Fatal(err)
	}

	expected := []Declaration{
		{ID: 1, Children: []uint32{2, 3}},
		{ID: 2, Children: []uint32{}},
		{ID: 3, Children: []uint32{}},
	}

	if !reflect.DeepEqual(decls, expected) {
		t.Fatalf("declarations should be %v, not %v", expected, decls)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("testdata/missing.properties"); err == nil {
		t.Fatal("loading a missing file should fail")
	}

	if _, err := Load("testdata/bad.properties"); err == nil {
		t.Fatal("loading a malformed child id should fail")
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected []Declaration
		err      bool
	}{
		{
			name:     "dangling children are legal",
			input:    "7=8,9\n",
			expected: []Declaration{{ID: 7, Children: []uint32{8, 9}}},
		},
		{
			name:     "children sorted and deduplicated",
			input:    "1=3, 2,3\n",
			expected: []Declaration{{ID: 1, Children: []uint32{2, 3}}},
		},
		{
			name:     "sorted by id",
			input:    "5=NO\n4=5\n",
			expected: []Declaration{{ID: 4, Children: []uint32{5}}, {ID: 5, Children: []uint32{}}},
		},
		{name: "bad id", input: "x=1\n", err: true},
		{name: "bad child", input: "1=x\n", err: true},
		{name: "negative child", input: "1=-2\n", err: true},
		{name: "empty value", input: "1=\n", err: true},
		{name: "duplicate id", input: "1=NO\n01=2\n", err: true},
		{name: "repeated id", input: "1=2,3\n1=NO\n", err: true},
		{name: "repeated id among others", input: "1=2,3\n2=NO\n1=NO\n", err: true},
		{name: "repeated id with colon separator", input: "1=2\n1:NO\n", err: true},
		{
			name:     "comments and continuations are not declarations",
			input:    "# 1=NO\n1=2,\\\n  3\n",
			expected: []Declaration{{ID: 1, Children: []uint32{2, 3}}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			decls, err := Parse(strings.NewReader(c.input))
			if c.err {
				if err == nil {
					t.Fatalf("expected an error, got %v", decls)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(decls, c.expected) {
				t.Fatalf("declarations should be %v, not %v", c.expected, decls)
			}
		})
	}
}

func TestDeclarationEdits(t *testing.T) {
	d := NewDeclaration(1, []uint32{3, 2})

	if s := d.String(); s != "1=2,3" {
		t.Fatalf("string should be 1=2,3, not %s", s)
	}

	d = d.WithChild(5).WithChild(2)
	if !reflect.DeepEqual(d.Children, []uint32{2, 3, 5}) {
		t.Fatalf("children should be [2 3 5], not %v", d.Children)
	}

	d = d.WithoutChild(3).WithoutChild(42)
	if !reflect.DeepEqual(d.Children, []uint32{2, 5}) {
		t.Fatalf("children should be [2 5], not %v", d.Children)
	}

	if s := NewDeclaration(4, nil).String(); s != "4=NO" {
		t.Fatalf("string should be 4=NO, not %s", s)
	}
}

func TestLoadRepeatedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.properties")
	if err := os.WriteFile(path, []byte("1=2,3\n2=NO\n1=NO\n"), 0644); err != nil {
		t.Fatal(err)
	}

	decls, err := Load(path)
	if err == nil {
		t.Fatalf("loading a repeated id should fail, got %v", decls)
	}
	if !strings.Contains(err.Error(), "node 1 declared twice") {
		t.Fatalf("unexpected error: %v", err)
	}
}
