package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    string
		percent bool
		wantErr bool
	}{
		{name: "absolute integer", spec: "1000", want: "1000"},
		{name: "absolute decimal", spec: "0.5", want: "0.5"},
		{name: "with thousands separator", spec: "1,000.25", want: "1000.25"},
		{name: "percent", spec: "50%", want: "50", percent: true},
		{name: "full percent", spec: "100%", want: "100", percent: true},
		{name: "fractional percent", spec: "0.1%", want: "0.1", percent: true},
		{name: "whitespace trimmed", spec: " 25% ", want: "25", percent: true},
		{name: "zero", spec: "0", wantErr: true},
		{name: "negative", spec: "-5", wantErr: true},
		{name: "zero percent", spec: "0%", wantErr: true},
		{name: "over 100 percent", spec: "150%", wantErr: true},
		{name: "garbage", spec: "lots", wantErr: true},
		{name: "empty", spec: "", wantErr: true},
		{name: "bare percent sign", spec: "%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuantity(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseQuantity(%q) = %+v, want error", tt.spec, q)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuantity(%q) error = %v", tt.spec, err)
			}
			if q.Value.String() != tt.want {
				t.Errorf("value = %s, want %s", q.Value, tt.want)
			}
			if q.Percent != tt.percent {
				t.Errorf("percent = %v, want %v", q.Percent, tt.percent)
			}
		})
	}
}

func TestQuantityPlan(t *testing.T) {
	available := decimal.NewFromInt(10000)
	price := decimal.NewFromInt(50)

	t.Run("percent spends a share of the balance", func(t *testing.T) {
		q := Quantity{Value: decimal.NewFromInt(50), Percent: true}
		cost, bought := q.Plan(available, price)
		if cost.String() != "5000" {
			t.Errorf("cost = %s, want 5000", cost)
		}
		if bought.String() != "100" {
			t.Errorf("bought = %s, want 100", bought)
		}
	})

	t.Run("absolute buys a fixed amount", func(t *testing.T) {
		q := Quantity{Value: decimal.NewFromInt(30)}
		cost, bought := q.Plan(available, price)
		if cost.String() != "1500" {
			t.Errorf("cost = %s, want 1500", cost)
		}
		if bought.String() != "30" {
			t.Errorf("bought = %s, want 30", bought)
		}
	})
}
