package memory

import (
	"context"
	"testing"

	"studiometrics/internal/core"
)

func TestSeedAndList(t *testing.T) {
	s := New()
	sessions := []core.Session{
		{
			Location:  "Centro",
			Trainer:   "Giulia",
			ClassName: "Morning Flow",
			ClassType: "Yoga",
			Date:      core.NewDate(2024, 3, 4),
			Sessions:  1,
			CheckedIn: 8,
			Capacity:  12,
		},
	}
	clients := []core.ClientConversion{
		{ClientID: "c-1", Location: "Centro", Status: core.StatusConverted, Visits: 4},
	}
	if err := s.Seed(sessions, nil, clients); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	got, err := s.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 1 || got[0].Trainer != "Giulia" {
		t.Errorf("ListSessions = %+v", got)
	}

	// The returned slice is a copy, mutating it must not touch the store.
	got[0].Trainer = "changed"
	again, _ := s.ListSessions(context.Background())
	if again[0].Trainer != "Giulia" {
		t.Error("store contents were mutated through a returned slice")
	}

	cs, err := s.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(cs) != 1 || cs[0].Status != core.StatusConverted {
		t.Errorf("ListClients = %+v", cs)
	}
}

func TestSeedRejectsInvalid(t *testing.T) {
	s := New()
	bad := []core.Session{{Trainer: "Giulia", ClassName: "Flow"}} // no location
	if err := s.Seed(bad, nil, nil); err == nil {
		t.Fatal("Seed must fail on an invalid record")
	}
	got, _ := s.ListSessions(context.Background())
	if len(got) != 0 {
		t.Error("failed Seed must not leave partial data")
	}
}

func TestAddSession(t *testing.T) {
	s := New()
	err := s.AddSession(core.Session{
		Location: "Centro", Trainer: "Marco", ClassName: "Power Hour",
		Date: core.NewDate(2024, 3, 5), Sessions: 1,
	})
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if err := s.AddSession(core.Session{Location: "Centro"}); err == nil {
		t.Fatal("expected validation error for missing trainer")
	}
}
