package game

import "testing"

// stubModule is a minimal RuleModule for testing the registry.
type stubModule struct {
	variant    Variant
	minPlayers int
	maxPlayers int
}

func (s stubModule) Info() Info {
	return Info{Variant: s.variant, MinPlayers: s.minPlayers, MaxPlayers: s.maxPlayers}
}

func (s stubModule) Initial(Params) (Snapshot, error)                { return Snapshot{Variant: s.variant}, nil }
func (s stubModule) Validate(Snapshot) error                         { return nil }
func (s stubModule) ToMove(Snapshot) (string, error)                 { return "", nil }
func (s stubModule) LegalActions(Snapshot, string) ([]Action, error) { return nil, nil }
func (s stubModule) Apply(Snapshot, string, Action) (Outcome, error) { return Outcome{}, nil }
func (s stubModule) View(snap Snapshot, _ string) (Snapshot, error)  { return snap, nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(stubModule{variant: Chess, minPlayers: 2, maxPlayers: 2})

	got, ok := r.Get(Chess)
	if !ok {
		t.Fatal("expected to find registered variant")
	}
	if got.Info().Variant != Chess {
		t.Fatalf("expected chess, got %s", got.Info().Variant)
	}

	if _, ok := r.Get("checkers"); ok {
		t.Fatal("expected not found for unregistered variant")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry(
		stubModule{variant: Poker, minPlayers: 2, maxPlayers: 10},
		stubModule{variant: Chess, minPlayers: 2, maxPlayers: 2},
	)

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(infos))
	}
	if infos[0].Variant != Chess || infos[1].Variant != Poker {
		t.Fatalf("expected chess then poker, got %v", infos)
	}
}

func TestRegistryListEmpty(t *testing.T) {
	if infos := NewRegistry().List(); len(infos) != 0 {
		t.Fatalf("expected 0 variants, got %d", len(infos))
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	m := stubModule{variant: Chess, minPlayers: 2, maxPlayers: 2}
	r.Register(m)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register(m)
}
