package core

import (
	"reflect"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	all := fixture(t)
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

	s := Summarize(all, now)
	if s.Count != 3 || s.Volume.Cents != 950000 || s.Types != 3 || s.ThisMonth != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	visible := Filter{Search: "completed"}.Apply(all)
	s = Summarize(visible, now)
	var want int64
	for _, tx := range visible {
		want += tx.Amount.Cents
	}
	if s.Volume.Cents != want || s.Count != len(visible) {
		t.Fatalf("summary does not match visible subset: %+v", s)
	}

	if empty := Summarize(nil, now); empty != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestTypeDistribution(t *testing.T) {
	all := append(fixture(t), Transaction{ID: 4, Type: "Incoming Money"}, Transaction{ID: 5, Type: " "})
	got := TypeDistribution(all)
	want := []TypeCount{
		{"Incoming Money", 2},
		{"Payment Completed", 1},
		{"Airtime Payment", 1},
		{UnknownType, 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TypeDistribution() = %v, want %v", got, want)
	}
}

func TestMonthlyVolume(t *testing.T) {
	all := append(fixture(t), Transaction{ID: 4, Type: "X", Amount: Money{Cents: 100}})
	got := MonthlyVolume(all)
	want := []MonthVolume{
		{"2024-01", Money{Cents: 650000}},
		{"2024-02", Money{Cents: 300000}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MonthlyVolume() = %v, want %v", got, want)
	}
}

func TestTypeAndMonthStats(t *testing.T) {
	all := fixture(t)
	ts := TypeStats(all)
	if len(ts) != 3 || ts[0].Type != "Airtime Payment" || ts[0].Total.Cents != 300000 {
		t.Fatalf("unexpected type stats: %+v", ts)
	}
	ms := MonthlyStats(all)
	if len(ms) != 2 || ms[0].Count != 2 || ms[1].Count != 1 {
		t.Fatalf("unexpected monthly stats: %+v", ms)
	}
}

func TestDistinctTypes(t *testing.T) {
	all := append(fixture(t), Transaction{Type: ""}, Transaction{Type: "Airtime Payment"})
	got := DistinctTypes(all)
	want := []string{"Airtime Payment", "Incoming Money", "Payment Completed"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DistinctTypes() = %v, want %v", got, want)
	}
}

func TestPaletteCycles(t *testing.T) {
	p := Palette(17)
	if len(p) != 17 || p[15] != p[0] || p[16] != p[1] {
		t.Fatalf("palette does not cycle: %v", p)
	}
}

func TestBuildCharts(t *testing.T) {
	c := BuildCharts(fixture(t))
	if len(c.Types.Labels) != 3 || len(c.Types.Colors) != 3 {
		t.Fatalf("unexpected type series: %+v", c.Types)
	}
	if !reflect.DeepEqual(c.Monthly.Labels, []string{"2024-01", "2024-02"}) {
		t.Fatalf("unexpected monthly labels: %v", c.Monthly.Labels)
	}
	if c.Monthly.Values[0] != 6500 {
		t.Fatalf("unexpected monthly value: %v", c.Monthly.Values)
	}
}
