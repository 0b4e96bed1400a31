package model

import "testing"

func TestGameUnit(t *testing.T) {
	valid := []GameUnit{UnitDay, UnitDays, UnitMonth, UnitMonths}
	for _, u := range valid {
		if !u.Valid() {
			t.Errorf("%s should be valid", u)
		}
	}
	for _, u := range []GameUnit{"", "week", "fortnight", "Day"} {
		if u.Valid() {
			t.Errorf("%q should be invalid", u)
		}
	}

	if UnitDay.Monthly() || UnitDays.Monthly() {
		t.Error("day units reported as monthly")
	}
	if !UnitMonth.Monthly() || !UnitMonths.Monthly() {
		t.Error("month units not reported as monthly")
	}
}

func TestLimitOrderOpen(t *testing.T) {
	tests := []struct {
		name     string
		executed bool
		canceled bool
		open     bool
	}{
		{name: "pending", open: true},
		{name: "executed", executed: true},
		{name: "canceled", canceled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := LimitOrder{Executed: tt.executed, Canceled: tt.canceled}
			if o.Open() != tt.open {
				t.Errorf("Open() = %v, want %v", o.Open(), tt.open)
			}
		})
	}
}

func TestResultHelpers(t *testing.T) {
	ok := Success("done")
	if !ok.OK || ok.Detail != "done" {
		t.Errorf("Success() = %+v", ok)
	}

	bad := Failure("nope")
	if bad.OK || bad.Detail != "nope" {
		t.Errorf("Failure() = %+v", bad)
	}

	p := &PortfolioSummary{BaseCurrency: "USD"}
	with := ok.WithPortfolio(p)
	if with.Portfolio != p {
		t.Error("WithPortfolio did not attach the summary")
	}
	if ok.Portfolio != nil {
		t.Error("WithPortfolio mutated the receiver")
	}
}
