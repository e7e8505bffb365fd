package scheduler

import "testing"

func TestDrainDueOrdersByDueThenSeq(t *testing.T) {
	q := NewQueue()
	q.Schedule(100, KindCombatAct, "c")
	q.Schedule(100, KindCombatAct, "a")
	q.Schedule(50, KindCombatAct, "b")
	q.Schedule(200, KindCombatAct, "d")

	due := q.DrainDue(100)
	if len(due) != 3 {
		t.Fatalf("drained %d events, want 3", len(due))
	}
	order := []string{due[0].IDs.(string), due[1].IDs.(string), due[2].IDs.(string)}
	want := []string{"b", "c", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q (full order %v)", i, order[i], want[i], order)
		}
	}

	if q.Len() != 1 {
		t.Fatalf("remaining queue length = %d, want 1", q.Len())
	}
}

func TestPeekDueEmptyQueue(t *testing.T) {
	q := NewQueue()
	if _, ok := q.PeekDue(); ok {
		t.Fatal("PeekDue on empty queue should report not-ok")
	}
}

func TestScheduleReturnsMonotonicSeq(t *testing.T) {
	q := NewQueue()
	s1 := q.Schedule(10, KindTick, nil)
	s2 := q.Schedule(10, KindTick, nil)
	if s2 <= s1 {
		t.Errorf("seq2 (%d) should be greater than seq1 (%d)", s2, s1)
	}
}
