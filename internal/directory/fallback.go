package directory

import (
	"context"
	"fmt"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

var fallbackStates = []Entry{
	{Name: "Uttar Pradesh", Value: "26"},
	{Name: "Delhi", Value: "43"},
	{Name: "Maharashtra", Value: "27"},
	{Name: "Karnataka", Value: "28"},
	{Name: "Tamil Nadu", Value: "31"},
	{Name: "Kerala", Value: "32"},
	{Name: "West Bengal", Value: "41"},
	{Name: "Gujarat", Value: "24"},
	{Name: "Rajasthan", Value: "29"},
	{Name: "Punjab", Value: "33"},
	{Name: "Haryana", Value: "34"},
	{Name: "Madhya Pradesh", Value: "23"},
	{Name: "Bihar", Value: "44"},
	{Name: "Odisha", Value: "45"},
	{Name: "Assam", Value: "46"},
}

var fallbackDistricts = map[string][]string{
	"Uttar Pradesh":  {"Lucknow", "Varanasi", "Kanpur Nagar", "Allahabad", "Agra"},
	"Delhi":          {"New Delhi", "South Delhi", "North Delhi", "East Delhi", "West Delhi"},
	"Maharashtra":    {"Mumbai", "Pune", "Nagpur", "Thane", "Nashik"},
	"Karnataka":      {"Bangalore Urban", "Mysore", "Hubli", "Belgaum", "Mangalore"},
	"Tamil Nadu":     {"Chennai", "Coimbatore", "Madurai", "Salem", "Tiruchirappalli"},
	"Kerala":         {"Thiruvananthapuram", "Kochi", "Kozhikode", "Thrissur", "Kollam"},
	"West Bengal":    {"Kolkata", "Howrah", "Hooghly", "North 24 Parganas", "South 24 Parganas"},
	"Gujarat":        {"Ahmedabad", "Surat", "Vadodara", "Rajkot", "Bhavnagar"},
	"Rajasthan":      {"Jaipur", "Jodhpur", "Udaipur", "Kota", "Ajmer"},
	"Punjab":         {"Amritsar", "Ludhiana", "Jalandhar", "Patiala", "Bathinda"},
	"Haryana":        {"Gurgaon", "Faridabad", "Ambala", "Panipat", "Karnal"},
	"Madhya Pradesh": {"Bhopal", "Indore", "Gwalior", "Jabalpur", "Ujjain"},
	"Bihar":          {"Patna", "Gaya", "Bhagalpur", "Muzaffarpur", "Darbhanga"},
	"Odisha":         {"Bhubaneswar", "Cuttack", "Rourkela", "Sambalpur", "Puri"},
	"Assam":          {"Guwahati", "Silchar", "Dibrugarh", "Jorhat", "Nagaon"},
}

var fallbackComplexes = []Entry{
	{Name: "District Court Complex", Value: "1"},
	{Name: "City Civil Court", Value: "2"},
	{Name: "Sessions Court", Value: "3"},
	{Name: "Family Court", Value: "4"},
	{Name: "Commercial Court", Value: "5"},
}

var fallbackCourts = []Entry{
	{Name: "Principal District and Sessions Judge", Value: "1"},
	{Name: "Additional District Judge", Value: "2"},
	{Name: "Chief Judicial Magistrate", Value: "3"},
	{Name: "Civil Judge (Senior Division)", Value: "4"},
}

// Fallback serves a fixed hierarchy. Districts are known for the fallback
// states only; every district shares the same court complexes and courts.
type Fallback struct{}

var _ Source = Fallback{}

func (Fallback) Lookup(_ context.Context, level causelist.Level, parents []string) ([]Entry, error) {
	switch level {
	case causelist.LevelState:
		return clone(fallbackStates), nil
	case causelist.LevelDistrict:
		names, ok := fallbackDistricts[first(parents)]
		if !ok {
			return nil, fmt.Errorf("districts of %q: %w", first(parents), ErrNotFound)
		}
		out := make([]Entry, 0, len(names))
		for _, n := range names {
			out = append(out, Entry{Name: n, Value: n})
		}
		return out, nil
	case causelist.LevelCourtComplex:
		return clone(fallbackComplexes), nil
	case causelist.LevelCourt:
		return clone(fallbackCourts), nil
	default:
		return nil, fmt.Errorf("unknown hierarchy level %d", level)
	}
}

func clone(entries []Entry) []Entry {
	return append([]Entry(nil), entries...)
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
