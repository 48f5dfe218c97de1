package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	// Create a resource
	handle, err := b.Create(1, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	// Get it back
	val, ok := b.Get(handle)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	kind, ok := b.KindOf(handle)
	if !ok || kind != 1 {
		t.Fatalf("Expected kind 1, got %d (ok=%v)", kind, ok)
	}

	// Drop it
	val, ok = b.Drop(handle)
	if !ok {
		t.Fatal("Drop failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	// Should not exist anymore
	_, ok = b.Get(handle)
	if ok {
		t.Fatal("Expected Get to fail after Drop")
	}
}

func TestLocalBackend_DoubleDrop(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(1, "once")
	if _, ok := b.Drop(handle); !ok {
		t.Fatal("first Drop failed")
	}
	if _, ok := b.Drop(handle); ok {
		t.Fatal("second Drop must fail")
	}
}

func TestLocalBackend_Borrow(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(1, 100)

	// Borrow
	if !b.Borrow(handle) {
		t.Fatal("Borrow failed")
	}

	// Cannot drop with outstanding borrow
	_, ok := b.Drop(handle)
	if ok {
		t.Fatal("Drop should fail with outstanding borrow")
	}

	// Return borrow
	if !b.ReturnBorrow(handle) {
		t.Fatal("ReturnBorrow failed")
	}

	// Now can drop
	_, ok = b.Drop(handle)
	if !ok {
		t.Fatal("Drop should succeed after returning borrow")
	}
}

func TestLocalBackend_MultipleBorrows(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(1, 100)

	// Multiple borrows
	for i := 0; i < 5; i++ {
		if !b.Borrow(handle) {
			t.Fatalf("Borrow %d failed", i)
		}
	}
	if n, _ := b.Borrows(handle); n != 5 {
		t.Fatalf("Expected 5 borrows, got %d", n)
	}

	// Cannot drop
	_, ok := b.Drop(handle)
	if ok {
		t.Fatal("Drop should fail with outstanding borrows")
	}

	// Return all borrows
	for i := 0; i < 5; i++ {
		if !b.ReturnBorrow(handle) {
			t.Fatalf("ReturnBorrow %d failed", i)
		}
	}
	if b.ReturnBorrow(handle) {
		t.Fatal("ReturnBorrow without a borrow must fail")
	}

	// Now can drop
	_, ok = b.Drop(handle)
	if !ok {
		t.Fatal("Drop should succeed after returning all borrows")
	}
}

func TestLocalBackend_HandleReuse(t *testing.T) {
	b := NewLocalBackend()

	// Create and drop several handles
	h1, _ := b.Create(1, 1)
	h2, _ := b.Create(1, 2)
	h3, _ := b.Create(1, 3)

	b.Drop(h2)
	b.Drop(h1)

	// New handles reuse freed slots with bumped generations
	h4, _ := b.Create(1, 4)
	h5, _ := b.Create(1, 5)

	if h4.Index() != h1.Index() || h5.Index() != h2.Index() {
		t.Fatalf("Expected LIFO slot reuse, got %d,%d", h4.Index(), h5.Index())
	}
	if h4.Generation() != h1.Generation()+1 {
		t.Fatalf("Expected generation %d, got %d", h1.Generation()+1, h4.Generation())
	}

	// Verify all live handles work and stale ones do not
	for _, h := range []Handle{h3, h4, h5} {
		if _, ok := b.Get(h); !ok {
			t.Fatalf("handle %#x should be valid", uint64(h))
		}
	}
	for _, h := range []Handle{h1, h2} {
		if _, ok := b.Get(h); ok {
			t.Fatalf("stale handle %#x should be invalid", uint64(h))
		}
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()

	b.Create(1, 1)
	b.Create(1, 2)

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Operations should fail after close
	_, err := b.Create(1, "test")
	if !errors.Is(err, ErrClosed) {
		t.Fatal("Expected ErrClosed after Close")
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, _ := b.Create(1, id)
			b.Borrow(h)
			b.ReturnBorrow(h)
			b.Drop(h)
		}(i)
	}

	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected Len() == 0, got %d", b.Len())
	}
}

func TestLocalBackend_Len(t *testing.T) {
	b := NewLocalBackend()

	if b.Len() != 0 {
		t.Fatal("Expected Len() == 0 initially")
	}

	h1, _ := b.Create(1, "a")
	h2, _ := b.Create(1, "b")
	b.Create(1, "c")

	if b.Len() != 3 {
		t.Fatalf("Expected Len() == 3, got %d", b.Len())
	}

	b.Drop(h1)
	if b.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", b.Len())
	}

	b.Drop(h2)
	if b.Len() != 1 {
		t.Fatalf("Expected Len() == 1, got %d", b.Len())
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend()

	b.Create(1, "a")
	b.Create(2, "b")
	b.Create(1, "c")

	count := 0
	b.Each(func(h Handle, kind Kind, value any) bool {
		count++
		return true
	})

	if count != 3 {
		t.Fatalf("Expected to iterate over 3 items, got %d", count)
	}

	// Test early termination
	count = 0
	b.Each(func(h Handle, kind Kind, value any) bool {
		count++
		return false
	})

	if count != 1 {
		t.Fatalf("Expected to iterate over 1 item (early term), got %d", count)
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()

	// Handle 0 is always invalid
	if _, ok := b.Get(0); ok {
		t.Fatal("Handle 0 should be invalid")
	}
	if _, ok := b.KindOf(0); ok {
		t.Fatal("Handle 0 should be invalid for KindOf")
	}
	if b.Borrow(0) {
		t.Fatal("Handle 0 should fail Borrow")
	}
	if b.ReturnBorrow(0) {
		t.Fatal("Handle 0 should fail ReturnBorrow")
	}
	if _, ok := b.Drop(0); ok {
		t.Fatal("Handle 0 should fail Drop")
	}

	// Non-existent handle
	if _, ok := b.Get(999); ok {
		t.Fatal("Non-existent handle should be invalid")
	}
}
