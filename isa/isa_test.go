package isa

import (
	"testing"

	"qasm/stack"
	"qasm/types"
)

func TestGetKnownAndUnknown(t *testing.T) {
	tmpl, err := Get("add")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Opcode != 16 {
		t.Errorf("add opcode = %d, want 16", tmpl.Opcode)
	}
	if _, err := Get("bogus"); err == nil {
		t.Fatalf("expected error for unknown instruction")
	}
}

func TestByOpcodeExit(t *testing.T) {
	tmpl, ok := ByOpcode(-1)
	if !ok || tmpl.Name != "exit" {
		t.Fatalf("expected exit at opcode -1, got %+v, %v", tmpl, ok)
	}
}

func TestEncodedSizePush(t *testing.T) {
	tmpl, _ := Get("push")
	if got := tmpl.EncodedSize(8); got != 3 {
		t.Errorf("push.EncodedSize(8) = %d, want 3 (opcode + var pair)", got)
	}
}

func TestEncodedSizeNew(t *testing.T) {
	tmpl, _ := Get("new")
	if got := tmpl.EncodedSize(8); got != 1+8+8 {
		t.Errorf("new.EncodedSize(8) = %d, want %d", got, 1+8+8)
	}
}

func TestResolveAddBindsGenericFromParams(t *testing.T) {
	tmpl, _ := Get("add")
	current := stack.State{stack.Concrete{Type: types.Int}, stack.Concrete{Type: types.Int}}
	resolved, err := tmpl.Resolve(current, stack.Bindings{"T": types.Int})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.After) != 1 || resolved.After[0].(stack.Concrete).Type != types.Int {
		t.Errorf("unexpected resolved after-state: %s", resolved.After)
	}
}

func TestResolveDupBindsGenericFromStack(t *testing.T) {
	tmpl, _ := Get("dup")
	current := stack.State{stack.Concrete{Type: types.Float}}
	resolved, err := tmpl.Resolve(current, stack.Bindings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.After) != 2 {
		t.Fatalf("expected 2 entries after dup, got %d", len(resolved.After))
	}
	for _, tag := range resolved.After {
		if tag.(stack.Concrete).Type != types.Float {
			t.Errorf("expected Float, got %s", tag)
		}
	}
}

func TestResolveNotEnoughValues(t *testing.T) {
	tmpl, _ := Get("pop")
	_, err := tmpl.Resolve(stack.State{}, stack.Bindings{"T": types.Int})
	if _, ok := err.(*stack.NotEnoughValues); !ok {
		t.Errorf("expected NotEnoughValues, got %T: %v", err, err)
	}
}
