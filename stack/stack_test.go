package stack

import (
	"testing"

	"qasm/types"
)

func c(t types.Tag) Tag { return Concrete{Type: t} }

func TestApplySimplePushPop(t *testing.T) {
	s := State{}
	s, err := Apply(s, Transformation{Before: State{}, After: State{c(types.Int)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err = Apply(s, Transformation{Before: State{c(types.Int)}, After: State{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 0 {
		t.Errorf("expected empty stack, got %s", s)
	}
}

func TestApplyNotEnoughValues(t *testing.T) {
	_, err := Apply(State{}, Transformation{Before: State{c(types.Int), c(types.Int)}, After: State{}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*NotEnoughValues); !ok {
		t.Errorf("expected NotEnoughValues, got %T: %v", err, err)
	}
}

func TestApplyIncompatibleType(t *testing.T) {
	s := State{c(types.Int)}
	_, err := Apply(s, Transformation{Before: State{c(types.Float)}, After: State{}})
	if _, ok := err.(*IncompatibleTypesOnStack); !ok {
		t.Errorf("expected IncompatibleTypesOnStack, got %T: %v", err, err)
	}
}

func TestGenericBindAndSubstitute(t *testing.T) {
	current := State{c(types.Int)}
	before := State{Generic{Name: "T"}}
	bound, err := Bind(before, current, Bindings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound["T"] != types.Int {
		t.Fatalf("expected T bound to Int, got %v", bound["T"])
	}
	after, err := Substitute(State{Generic{Name: "T"}}, bound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after) != 1 || after[0].(Concrete).Type != types.Int {
		t.Errorf("unexpected substituted state: %s", after)
	}
}

func TestGenericDupProducesSameTypeTwice(t *testing.T) {
	current := State{c(types.Float)}
	before := State{Generic{Name: "T"}}
	after := State{Generic{Name: "T"}, Generic{Name: "T"}}
	bound, err := Bind(before, current, Bindings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	subBefore, err := Substitute(before, bound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	subAfter, err := Substitute(after, bound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := Apply(current, Transformation{Before: subBefore, After: subAfter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	for _, tag := range result {
		if tag.(Concrete).Type != types.Float {
			t.Errorf("expected both entries to be Float, got %s", tag)
		}
	}
}

func TestManyExactCount(t *testing.T) {
	current := State{c(types.Int), c(types.Int), c(types.Int)}
	result, err := Apply(current, Transformation{Before: State{Many{Elem: c(types.Int), Limit: 2}}, After: State{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected 1 remaining entry, got %d: %s", len(result), result)
	}
}

func TestManyGreedy(t *testing.T) {
	current := State{c(types.Float), c(types.Int), c(types.Int), c(types.Int)}
	result, err := Apply(current, Transformation{Before: State{Many{Elem: c(types.Int), Limit: -1}}, After: State{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected greedy pop to stop at non-matching type, got %d: %s", len(result), result)
	}
	if result[0].(Concrete).Type != types.Float {
		t.Errorf("expected remaining Float, got %s", result[0])
	}
}

func TestManyGreedyEmptiesStack(t *testing.T) {
	current := State{c(types.Int), c(types.Int)}
	result, err := Apply(current, Transformation{Before: State{Many{Elem: c(types.Int), Limit: -1}}, After: State{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty stack, got %s", result)
	}
}
