package modelcache

import "testing"

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Add("a.png", "a.glb")
	c.Add("b.png", "b.glb")
	if _, ok := c.Get("a.png"); !ok {
		t.Fatal("expected a.png to be cached")
	}
	c.Add("c.png", "c.glb")

	if _, ok := c.Get("b.png"); ok {
		t.Fatal("b.png should have been evicted")
	}
	if got, ok := c.Get("a.png"); !ok || got != "a.glb" {
		t.Fatalf("Get(a.png) = %q, %v", got, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
}

func TestCacheIgnoresEmpty(t *testing.T) {
	c, _ := New(0)
	c.Add("", "x.glb")
	c.Add("x.png", "")
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
	if _, ok := c.Get(""); ok {
		t.Fatal("empty key should miss")
	}
}
