package gormrepository

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"landedcost/internal/repository"
)

func TestDisconnectedStoreIsNoop(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	called := false
	if err := s.InTx(ctx, func(*gorm.DB) error { called = true; return nil }); err != nil {
		t.Fatalf("InTx err=%v", err)
	}
	if called {
		t.Fatalf("InTx ran fn without a connection")
	}
	job, ok, err := s.TransitionJob(ctx, "j1", []string{"pending"}, "running", repository.JobUpdate{})
	if err != nil || ok || job != nil {
		t.Fatalf("TransitionJob got=(%v,%v,%v) want=(nil,false,nil)", job, ok, err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in, fallback, want int
	}{
		{0, 50, 50},
		{-3, 50, 50},
		{20, 50, 20},
		{900, 50, 500},
	}
	for _, tc := range cases {
		if got := normalizeLimit(tc.in, tc.fallback); got != tc.want {
			t.Fatalf("normalizeLimit(%d,%d) got=%d want=%d", tc.in, tc.fallback, got, tc.want)
		}
	}
}

func TestCleanStrings(t *testing.T) {
	got := cleanStrings([]string{" a", "", "b", "a ", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("cleanStrings got=%v want=[a b]", got)
	}
}
