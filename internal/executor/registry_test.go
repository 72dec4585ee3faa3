package executor

import (
	"context"
	"testing"
	"time"

	"github.com/hollis-m/relay/internal/errors"
)

func TestRegistry_RegisterResolve(t *testing.T) {
	r := NewRegistry()

	err := r.Register("llm", Func(func(_ context.Context, req Request) (string, error) {
		return "answered: " + req.Description, nil
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	exec, err := r.Resolve("llm")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	out, err := exec.Execute(context.Background(), Request{Description: "q"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "answered: q" {
		t.Errorf("output = %q", out)
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("ghost")
	if !errors.Is(err, errors.ErrExecutorNotRegistered) {
		t.Errorf("error = %v, want ErrExecutorNotRegistered", err)
	}
}

func TestRegistry_DuplicateTag(t *testing.T) {
	r := NewRegistry()
	noop := Func(func(context.Context, Request) (string, error) { return "", nil })

	if err := r.Register("a", noop); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("a", noop); err == nil {
		t.Error("expected error for duplicate tag")
	}
}

func TestRegistry_RejectsEmptyTagAndNilExecutor(t *testing.T) {
	r := NewRegistry()
	noop := Func(func(context.Context, Request) (string, error) { return "", nil })

	if err := r.Register("", noop); err == nil {
		t.Error("expected error for empty tag")
	}
	if err := r.Register("x", nil); err == nil {
		t.Error("expected error for nil executor")
	}
}

func TestRegistry_TypesPreservesOrder(t *testing.T) {
	r := NewRegistry()
	noop := Func(func(context.Context, Request) (string, error) { return "", nil })
	for _, tag := range []string{"c", "a", "b"} {
		if err := r.Register(tag, noop); err != nil {
			t.Fatal(err)
		}
	}

	types := r.Types()
	if len(types) != 3 || types[0] != "c" || types[1] != "a" || types[2] != "b" {
		t.Errorf("Types() = %v, want [c a b]", types)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	for _, tag := range []string{TypeEcho, TypeShell, TypeSleep} {
		if _, err := r.Resolve(tag); err != nil {
			t.Errorf("Resolve(%s): %v", tag, err)
		}
	}
}

func TestEcho(t *testing.T) {
	out, err := Echo(context.Background(), Request{Description: "hello"})
	if err != nil {
		t.Fatalf("Echo: %v", err)
	}
	if out != "hello" {
		t.Errorf("output = %q", out)
	}
}

func TestShell_Success(t *testing.T) {
	out, err := Shell(context.Background(), Request{TaskID: "t1", Description: "echo shell-ok"})
	if err != nil {
		t.Fatalf("Shell: %v", err)
	}
	if out != "shell-ok" {
		t.Errorf("output = %q", out)
	}
}

func TestShell_Failure(t *testing.T) {
	_, err := Shell(context.Background(), Request{TaskID: "t1", Description: "exit 3"})
	if !errors.Is(err, errors.ErrTaskExecution) {
		t.Errorf("error = %v, want ErrTaskExecution", err)
	}
}

func TestSleep_ParsesDuration(t *testing.T) {
	start := time.Now()
	out, err := Sleep(context.Background(), Request{Description: "20ms"})
	if err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %v, want >= 20ms", elapsed)
	}
	if out != "slept 20ms" {
		t.Errorf("output = %q", out)
	}
}

func TestSleep_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sleep(ctx, Request{Description: "10s"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
