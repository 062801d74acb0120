package locking

import (
	"errors"
	"sync"
	"testing"
)

func TestExecute(t *testing.T) {
	t.Run("returns fn error", func(t *testing.T) {
		lm := NewLockManager()
		want := errors.New("boom")
		if err := lm.Execute(WriteOperation, func() error { return want }); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("lock released after panic", func(t *testing.T) {
		lm := NewLockManager()
		func() {
			defer func() { _ = recover() }()
			_ = lm.Execute(WriteOperation, func() error { panic("boom") })
		}()
		done := make(chan struct{})
		go func() {
			_ = lm.Execute(WriteOperation, func() error { return nil })
			close(done)
		}()
		<-done
	})

	t.Run("writes are serialized", func(t *testing.T) {
		lm := NewLockManager()
		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = lm.Execute(WriteOperation, func() error {
					counter++
					return nil
				})
			}()
		}
		wg.Wait()

		got, err := Read(lm, func() (int, error) { return counter, nil })
		if err != nil {
			t.Fatalf("failed to read counter: %v", err)
		}
		if got != 50 {
			t.Errorf("expected 50, got %d", got)
		}
	})
}

func TestWrite(t *testing.T) {
	lm := NewLockManager()
	values := []string{}
	n, err := Write(lm, func() (int, error) {
		values = append(values, "a", "b")
		return len(values), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}

func TestOperationTypeString(t *testing.T) {
	if ReadOperation.String() != "read" || WriteOperation.String() != "write" {
		t.Errorf("unexpected names: %s %s", ReadOperation, WriteOperation)
	}
}
