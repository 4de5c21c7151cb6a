package locator

import (
	"math/rand"
	"testing"
	"testing/quick"

	"pptx-translator/internal/types"
)

type node struct {
	id   int
	kids []*node
}

func (n *node) ShapeID() int { return n.id }
func (n *node) Children() []*node { return n.kids }

func quickConfig() *quick.Config {
	return &quick.Config{
		MaxCount: 100,
		Rand:     rand.New(rand.NewSource(42)),
	}
}

func TestFindNestedGroups(t *testing.T) {
	// group(10) -> group(11) -> shape(42), then sibling 12, then top-level 2
	roots := []*node{
		{id: 10, kids: []*node{
			{id: 11, kids: []*node{{id: 42}}},
			{id: 12},
		}},
		{id: 2},
	}

	tests := []struct {
		id    int
		found bool
	}{
		{10, true}, {11, true}, {42, true}, {12, true}, {2, true}, {99, false},
	}
	for _, tt := range tests {
		n, ok := Find(roots, tt.id)
		if ok != tt.found {
			t.Errorf("Find(%d) found=%v, want %v", tt.id, ok, tt.found)
			continue
		}
		if ok && n.id != tt.id {
			t.Errorf("Find(%d) returned %d", tt.id, n.id)
		}
	}
	if Count(roots) != 5 {
		t.Errorf("Count() = %d, want 5", Count(roots))
	}
}

func TestFindDepthFirstOrder(t *testing.T) {
	// Duplicate ids never occur in valid decks; with one here the group
	// member must win over the later sibling.
	member := &node{id: 7}
	roots := []*node{{id: 1, kids: []*node{member}}, {id: 7}}
	if n, _ := Find(roots, 7); n != member {
		t.Error("group members must be searched before the next sibling")
	}
}

func TestFindDeepNesting(t *testing.T) {
	const depth = 100000
	root := &node{id: 0}
	cur := root
	for i := 1; i <= depth; i++ {
		next := &node{id: i}
		cur.kids = []*node{next}
		cur = next
	}
	if n, ok := Find([]*node{root}, depth); !ok || n.id != depth {
		t.Fatalf("deepest shape not found")
	}
}

func TestClaim(t *testing.T) {
	roots := []*node{{id: 10, kids: []*node{{id: 42}}}, {id: 2}}
	loc := New("slide[1]", roots)

	if n, err := loc.Claim(42); err != nil || n.id != 42 {
		t.Fatalf("Claim(42) = %v, %v", n, err)
	}
	if !loc.Claimed(42) || loc.Claimed(2) {
		t.Error("Claimed() mismatch")
	}
	_, err := loc.Claim(42)
	if !types.IsCode(err, types.ErrStructuralMismatch) {
		t.Errorf("second claim error = %v", err)
	}
	_, err = loc.Claim(7)
	if !types.IsCode(err, types.ErrIdentityNotFound) {
		t.Errorf("missing id error = %v", err)
	}
	if app, ok := err.(*types.AppError); !ok || app.Details != "slide[1]/shape[7]" {
		t.Errorf("error details = %v", err)
	}
	if _, err := loc.Claim(2); err != nil {
		t.Errorf("a failed claim must not affect others: %v", err)
	}
}

// randomTree builds a forest with unique ids 1..n and random nesting.
func randomTree(r *rand.Rand, n int) []*node {
	var roots []*node
	var all []*node
	for id := 1; id <= n; id++ {
		nd := &node{id: id}
		if len(all) == 0 || r.Intn(3) == 0 {
			roots = append(roots, nd)
		} else {
			parent := all[r.Intn(len(all))]
			parent.kids = append(parent.kids, nd)
		}
		all = append(all, nd)
	}
	return roots
}

// Every id in a random forest is found exactly once, and ids outside it
// are never found.
func TestFindProperty(t *testing.T) {
	f := func(seed int64, size uint8) bool {
		r := rand.New(rand.NewSource(seed))
		n := int(size)%60 + 1
		roots := randomTree(r, n)
		if Count(roots) != n {
			return false
		}
		loc := New("slide[1]", roots)
		for id := 1; id <= n; id++ {
			got, err := loc.Claim(id)
			if err != nil || got.id != id {
				return false
			}
		}
		for id := 1; id <= n; id++ {
			if _, err := loc.Claim(id); err == nil {
				return false
			}
		}
		_, ok := Find(roots, n+1)
		return !ok
	}
	if err := quick.Check(f, quickConfig()); err != nil {
		t.Error(err)
	}
}
