package runlock

import (
	"errors"
	"testing"

	"shuttersort/internal/services"
)

func TestAcquireAndRelease(t *testing.T) {
	lock := New(t.TempDir())
	if err := lock.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestSecondAcquireFails(t *testing.T) {
	dir := t.TempDir()

	first := New(dir)
	if err := first.Acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer first.Release()

	second := New(dir)
	err := second.Acquire()
	if err == nil {
		second.Release()
		t.Fatal("second acquire should fail while the first holds the lock")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation marker", err)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	dir := t.TempDir()

	lock := New(dir)
	if err := lock.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	again := New(dir)
	if err := again.Acquire(); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	again.Release()
}
