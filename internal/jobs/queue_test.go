package jobs

import (
	"testing"
	"time"

	"landedcost/internal/apperr"
)

func TestQueueOrdersByPriorityThenSubmission(t *testing.T) {
	q := newReadyQueue()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q.add("low-1", PriorityLow, base, base, nil)
	q.add("med-2", PriorityMedium, base.Add(2*time.Second), base, nil)
	q.add("med-1", PriorityMedium, base.Add(time.Second), base, nil)
	q.add("urgent", PriorityUrgent, base.Add(3*time.Second), base, nil)
	q.add("high", PriorityHigh, base.Add(4*time.Second), base, nil)

	want := []string{"urgent", "high", "med-1", "med-2", "low-1"}
	for i, id := range want {
		got := q.pop()
		if got == nil || got.id != id {
			t.Fatalf("pop %d=%v want %s", i, got, id)
		}
	}
	if q.pop() != nil {
		t.Fatalf("queue should be empty")
	}
}

func TestQueueHoldsDelayedJobsUntilDue(t *testing.T) {
	q := newReadyQueue()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	q.add("retry", PriorityUrgent, now, now, &later)
	q.add("fresh", PriorityLow, now, now, nil)
	if q.len() != 2 {
		t.Fatalf("len=%d want 2", q.len())
	}

	q.release(now)
	if got := q.pop(); got == nil || got.id != "fresh" {
		t.Fatalf("got=%v want fresh", got)
	}
	if q.pop() != nil {
		t.Fatalf("delayed job released early")
	}
	q.release(later)
	if got := q.pop(); got == nil || got.id != "retry" {
		t.Fatalf("got=%v want retry", got)
	}
}

func TestQueueRemoveAndPromote(t *testing.T) {
	q := newReadyQueue()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q.add("a", PriorityLow, now, now, nil)
	q.add("b", PriorityMedium, now.Add(time.Second), now, nil)
	q.add("c", PriorityMedium, now.Add(2*time.Second), now, nil)
	q.add("a", PriorityLow, now, now, nil)
	if q.len() != 3 {
		t.Fatalf("duplicate add changed len to %d", q.len())
	}

	if !q.remove("b") || q.remove("b") {
		t.Fatalf("remove should succeed exactly once")
	}
	q.setPriority("a", PriorityMedium, now)
	if got := q.pop(); got.id != "a" {
		t.Fatalf("got=%s want a (older submission at same tier)", got.id)
	}
	if starved := q.starved(now.Add(time.Hour), time.Minute); len(starved) != 1 || starved[0].id != "c" {
		t.Fatalf("starved=%v want [c]", starved)
	}
}

func TestNextPriority(t *testing.T) {
	cases := map[string]string{
		PriorityLow:    PriorityMedium,
		PriorityMedium: PriorityHigh,
		PriorityHigh:   PriorityUrgent,
		PriorityUrgent: PriorityUrgent,
	}
	for in, want := range cases {
		if got := nextPriority(in); got != want {
			t.Fatalf("nextPriority(%s)=%s want %s", in, got, want)
		}
	}
}

func TestDecodeParameters(t *testing.T) {
	cases := []struct {
		name string
		typ  string
		raw  string
		ok   bool
	}{
		{"savings ok", TypeSavingsAnalysis, `{"workspace_id":"w","product_ids":["a","a"," "],"configuration":{"max_scenarios":3}}`, true},
		{"savings no products", TypeSavingsAnalysis, `{"workspace_id":"w","product_ids":[],"configuration":{"max_scenarios":3}}`, false},
		{"savings unknown field", TypeSavingsAnalysis, `{"workspace_id":"w","product_ids":["a"],"configuration":{"max_scenarios":3},"extra":1}`, false},
		{"savings bad config", TypeSavingsAnalysis, `{"workspace_id":"w","product_ids":["a"],"configuration":{"max_scenarios":3,"confidence_threshold":2}}`, false},
		{"comparison ok", TypeScenarioComparison, `{"workspace_id":"w","scenario_ids":["s1"]}`, true},
		{"comparison empty", TypeScenarioComparison, `{"workspace_id":"w","scenario_ids":[]}`, false},
		{"recommendations ok", TypeRecommendationGeneration, `{"workspace_id":"w","source_job_id":"j"}`, true},
		{"recommendations no source", TypeRecommendationGeneration, `{"workspace_id":"w"}`, false},
		{"missing", TypeSavingsAnalysis, ``, false},
		{"unknown type", "other", `{}`, false},
	}
	for _, tc := range cases {
		p, err := DecodeParameters(tc.typ, []byte(tc.raw))
		if tc.ok != (err == nil) {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
		if err != nil && apperr.CodeOf(err) != apperr.CodeInvalidInput {
			t.Fatalf("%s: code=%s want invalid_input", tc.name, apperr.CodeOf(err))
		}
		if tc.name == "savings ok" && len(p.SavingsAnalysis.ProductIDs) != 1 {
			t.Fatalf("product ids not deduplicated: %v", p.SavingsAnalysis.ProductIDs)
		}
	}
}
