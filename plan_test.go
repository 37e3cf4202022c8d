package onward_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/Zwork101/onward"
	"github.com/Zwork101/onward/id"
)

func TestPlan_RecordAndLookup(t *testing.T) {
	p := onward.NewPlan()
	key := onward.KeyFor[*parseResult]()

	if err := p.RecordState(key, &parseResult{Percentage: 0.213}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, ok := p.StateValue(key)
	if !ok {
		t.Fatal("expected recorded state to be readable")
	}
	if got := s.(*parseResult).Percentage; got != 0.213 {
		t.Errorf("Percentage = %v, want 0.213", got)
	}
}

func TestPlan_RecordTwiceFails(t *testing.T) {
	p := onward.NewPlan()
	key := onward.KeyFor[*parseResult]()

	if err := p.RecordState(key, &parseResult{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := p.RecordState(key, &parseResult{})
	if !errors.Is(err, onward.ErrStateExists) {
		t.Errorf("expected ErrStateExists, got %v", err)
	}
}

func TestPlan_UnproducedState(t *testing.T) {
	p := onward.NewPlan()

	if _, ok := p.StateValue(onward.KeyFor[*uploadResult]()); ok {
		t.Error("unproduced key must report no value")
	}
	if _, ok := onward.StateOf[*uploadResult](p); ok {
		t.Error("StateOf for an unproduced key must report false")
	}
}

func TestStateOf(t *testing.T) {
	p := onward.NewPlan()
	if err := p.RecordState(onward.KeyFor[*uploadResult](), &uploadResult{Data: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	up, ok := onward.StateOf[*uploadResult](p)
	if !ok {
		t.Fatal("expected recorded state")
	}
	if up.Data["k"] != "v" {
		t.Errorf("Data[k] = %q, want %q", up.Data["k"], "v")
	}
}

func TestPlan_Values(t *testing.T) {
	p := onward.NewPlan(onward.WithValue("file_name", "users.csv"))

	v, ok := p.Value("file_name")
	if !ok {
		t.Fatal("expected configured value")
	}
	if v != "users.csv" {
		t.Errorf("Value = %v, want users.csv", v)
	}
	if _, ok := p.Value("missing"); ok {
		t.Error("unset key must report no value")
	}
}

func TestPlan_RunID(t *testing.T) {
	p := onward.NewPlan()

	if p.RunID().IsNil() {
		t.Fatal("expected a generated run ID")
	}
	if got, want := p.RunID().Prefix(), id.PrefixRun; got != want {
		t.Errorf("Prefix = %q, want %q", got, want)
	}
}

func TestPlan_Logger(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	p := onward.NewPlan(onward.WithLogger(logger))

	if p.Logger() != logger {
		t.Error("expected the configured logger")
	}
}
