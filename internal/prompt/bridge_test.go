package prompt

import (
	"context"
	"testing"
	"time"

	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

func TestSubmitResolvesRequest(t *testing.T) {
	b := NewBridge()

	type result struct {
		value string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := b.Request(context.Background(), KindPassword)
		done <- result{v, err}
	}()

	<-b.Notify()
	kind, ok := b.Oldest()
	if !ok || kind != KindPassword {
		t.Fatalf("Oldest = %q, %v", kind, ok)
	}

	if !b.Submit("hunter2") {
		t.Fatal("Submit returned false with a pending request")
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("Request: %v", res.err)
	}
	if res.value != "hunter2" {
		t.Errorf("value = %q", res.value)
	}
}

func TestCancelRejectsWithSentinel(t *testing.T) {
	b := NewBridge()

	errs := make(chan error, 1)
	go func() {
		_, err := b.Request(context.Background(), KindAccountName)
		errs <- err
	}()

	<-b.Notify()
	if !b.Cancel() {
		t.Fatal("Cancel returned false with a pending request")
	}

	if err := <-errs; !hberr.Is(err, hberr.ErrPromptCancelled) {
		t.Errorf("err = %v, want ErrPromptCancelled", err)
	}
}

func TestRequestsSettleOldestFirst(t *testing.T) {
	b := NewBridge()

	first := make(chan string, 1)
	second := make(chan string, 1)

	go func() {
		v, _ := b.Request(context.Background(), KindPassword)
		first <- v
	}()
	waitPending(t, b, 1)

	go func() {
		v, _ := b.Request(context.Background(), KindNewPassword)
		second <- v
	}()
	waitPending(t, b, 2)

	if kind, _ := b.Oldest(); kind != KindPassword {
		t.Fatalf("oldest = %q, want %q", kind, KindPassword)
	}

	b.Submit("one")
	if got := <-first; got != "one" {
		t.Errorf("first = %q", got)
	}

	if kind, _ := b.Oldest(); kind != KindNewPassword {
		t.Fatalf("oldest after settle = %q, want %q", kind, KindNewPassword)
	}

	b.Submit("two")
	if got := <-second; got != "two" {
		t.Errorf("second = %q", got)
	}
}

func TestContextCancelRemovesRequest(t *testing.T) {
	b := NewBridge()
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		_, err := b.Request(ctx, KindPassword)
		errs <- err
	}()
	waitPending(t, b, 1)

	cancel()

	err := <-errs
	if !hberr.Is(err, hberr.ErrPromptCancelled) {
		t.Errorf("err = %v, want ErrPromptCancelled", err)
	}

	waitPending(t, b, 0)
	if b.Submit("late") {
		t.Error("Submit should report false after the request was abandoned")
	}
}

func TestCancelAll(t *testing.T) {
	b := NewBridge()

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, err := b.Request(context.Background(), KindPassword)
			errs <- err
		}()
	}
	waitPending(t, b, 3)

	b.CancelAll()

	for i := 0; i < 3; i++ {
		if err := <-errs; !hberr.Is(err, hberr.ErrPromptCancelled) {
			t.Errorf("err = %v, want ErrPromptCancelled", err)
		}
	}
	if b.PendingCount() != 0 {
		t.Errorf("PendingCount = %d after CancelAll", b.PendingCount())
	}
}

func TestSettleWithNothingPending(t *testing.T) {
	b := NewBridge()
	if b.Submit("x") {
		t.Error("Submit should report false with no pending request")
	}
	if b.Cancel() {
		t.Error("Cancel should report false with no pending request")
	}
}

func waitPending(t *testing.T, b *Bridge, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.PendingCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("PendingCount = %d, want %d", b.PendingCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}
