package core

import (
	"sort"
	"strings"
	"time"
)

// Summary holds the headline statistics of the visible subset.
type Summary struct {
	Count     int
	Volume    Money
	Types     int // distinct types
	ThisMonth int // records dated in the current calendar month
}

// TypeCount is one slice of the type distribution chart.
type TypeCount struct {
	Type  string
	Count int
}

// MonthVolume is one point of the monthly volume chart.
type MonthVolume struct {
	Month  string // YYYY-MM
	Volume Money
}

// TypeStat aggregates count and amount by type.
type TypeStat struct {
	Type  string
	Count int
	Total Money
}

// MonthStat aggregates count and amount by month.
type MonthStat struct {
	Month string
	Count int
	Total Money
}

// Summarize computes the headline statistics. now selects the current month.
func Summarize(visible []Transaction, now time.Time) Summary {
	current := now.Format("2006-01")
	types := make(map[string]struct{})
	var s Summary
	for _, t := range visible {
		s.Count++
		s.Volume = s.Volume.Add(t.Amount)
		types[t.Type] = struct{}{}
		if t.Month() == current {
			s.ThisMonth++
		}
	}
	s.Types = len(types)
	return s
}

// TypeDistribution counts records per displayed type in first-seen order.
func TypeDistribution(visible []Transaction) []TypeCount {
	idx := make(map[string]int)
	var out []TypeCount
	for _, t := range visible {
		name := t.DisplayType()
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, TypeCount{Type: name})
		}
		out[i].Count++
	}
	return out
}

// MonthlyVolume sums amounts per YYYY-MM, ascending. Undated records are skipped.
func MonthlyVolume(visible []Transaction) []MonthVolume {
	stats := MonthlyStats(visible)
	out := make([]MonthVolume, len(stats))
	for i, s := range stats {
		out[i] = MonthVolume{Month: s.Month, Volume: s.Total}
	}
	return out
}

// TypeStats groups by raw type, sorted by type name.
func TypeStats(visible []Transaction) []TypeStat {
	byType := make(map[string]*TypeStat)
	for _, t := range visible {
		st, ok := byType[t.Type]
		if !ok {
			st = &TypeStat{Type: t.Type}
			byType[t.Type] = st
		}
		st.Count++
		st.Total = st.Total.Add(t.Amount)
	}
	out := make([]TypeStat, 0, len(byType))
	for _, st := range byType {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// MonthlyStats groups dated records by YYYY-MM, ascending.
func MonthlyStats(visible []Transaction) []MonthStat {
	byMonth := make(map[string]*MonthStat)
	for _, t := range visible {
		m := t.Month()
		if m == "" {
			continue
		}
		st, ok := byMonth[m]
		if !ok {
			st = &MonthStat{Month: m}
			byMonth[m] = st
		}
		st.Count++
		st.Total = st.Total.Add(t.Amount)
	}
	out := make([]MonthStat, 0, len(byMonth))
	for _, st := range byMonth {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// DistinctTypes returns the sorted set of non-blank types.
func DistinctTypes(all []Transaction) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, t := range all {
		name := strings.TrimSpace(t.Type)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
