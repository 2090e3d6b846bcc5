package gref

import "testing"

func TestSearchInternsOnce(t *testing.T) {
	c := NewCache()
	a := c.Search("printf", "3", false)
	b := c.Search("printf", "3", false)
	if a != b {
		t.Fatalf("Search returned distinct pointers for the same spelling")
	}
	if c.Find("printf", "3", false) != a {
		t.Fatalf("Find(printf,3) != Search(printf,3)")
	}
}

func TestFindBeforeSearchIsNil(t *testing.T) {
	c := NewCache()
	if g := c.Find("lsp", "1", false); g != nil {
		t.Fatalf("Find on an uninterned name returned %v, want nil", g)
	}
}

func TestKeyFoldsCaseUnlessManCase(t *testing.T) {
	if Key("PRINTF", "3", false) != Key("printf", "3", false) {
		t.Fatalf("case-insensitive keys should match")
	}
	if Key("PRINTF", "3", true) == Key("printf", "3", true) {
		t.Fatalf("man-case keys should not fold")
	}
}

func TestMarkValidPrePopulatesCache(t *testing.T) {
	c := NewCache()
	c.MarkValid("lsp", "1", false)
	g := c.Search("lsp", "1", false)
	if g.State != Valid {
		t.Fatalf("State = %v, want Valid", g.State)
	}
}

func TestCanonicalWithAndWithoutSection(t *testing.T) {
	g := &GRef{Name: "lsp", Section: "1"}
	if g.Canonical() != "lsp(1)" {
		t.Fatalf("Canonical() = %q, want lsp(1)", g.Canonical())
	}
	g2 := &GRef{Name: "lsp"}
	if g2.Canonical() != "lsp" {
		t.Fatalf("Canonical() = %q, want lsp", g2.Canonical())
	}
}
