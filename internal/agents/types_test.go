package agents

import "testing"

func TestCanInterruptIsStrict(t *testing.T) {
	cases := []struct {
		incoming, current Priority
		want              bool
	}{
		{PriorityCritical, PriorityHigh, true},
		{PriorityHigh, PriorityNormal, true},
		{PriorityNormal, PriorityIdle, true},

		// Equal priority never preempts: an urgent trip home cannot break
		// an in-progress commute, both being high.
		{PriorityHigh, PriorityHigh, false},
		{PriorityCritical, PriorityCritical, false},
		{PriorityIdle, PriorityIdle, false},

		{PriorityNormal, PriorityHigh, false},
		{PriorityIdle, PriorityCritical, false},
	}
	for _, tc := range cases {
		if got := CanInterrupt(tc.incoming, tc.current); got != tc.want {
			t.Errorf("CanInterrupt(%s, %s) = %v, want %v",
				PriorityName(tc.incoming), PriorityName(tc.current), got, tc.want)
		}
	}
}

func TestClearEmployment(t *testing.T) {
	emp := uint64(3)
	wp := uint64(4)
	a := &Agent{
		Status: StatusEmployed,
		Employment: Employment{
			EmployerID: &emp, WorkplaceID: &wp, Salary: 60, HiredPhase: 12,
		},
		ShiftWorked: 2,
	}

	a.ClearEmployment()

	if a.Status != StatusAvailable {
		t.Fatalf("Status = %s, want available", StatusName(a.Status))
	}
	if a.Employment != (Employment{}) {
		t.Fatalf("Employment not cleared: %+v", a.Employment)
	}
	if a.ShiftWorked != 0 {
		t.Fatal("shift counter should reset")
	}
}

func TestClearEmploymentLeavesDeadStatus(t *testing.T) {
	a := &Agent{Status: StatusDead}
	a.ClearEmployment()
	if a.Status != StatusDead {
		t.Fatal("clearing employment must not resurrect an agent")
	}
}
