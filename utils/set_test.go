package utils

import (
	"reflect"
	"testing"
)

func TestStringSetNoDuplicates(t *testing.T) {
	s := NewStringSet()

	added := s.Add("7590-VHVEG")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("7590-VHVEG")
	if added {
		t.Error("second Add of same value should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestStringSetSubset(t *testing.T) {
	all := NewStringSet("New", "Regular", "Loyal", "Champion")

	tests := []struct {
		values []string
		want   bool
	}{
		{[]string{"New", "Loyal"}, true},
		{[]string{"New", "Regular", "Loyal", "Champion"}, true},
		{[]string{}, true},
		{[]string{"New", "Veteran"}, false},
	}

	for _, tt := range tests {
		got := NewStringSet(tt.values...).IsSubsetOf(all)
		if got != tt.want {
			t.Errorf("%v ⊆ all = %v; want %v", tt.values, got, tt.want)
		}
	}
}

func TestStringSetSorted(t *testing.T) {
	s := NewStringSet("2", "0", "1", "0")
	want := []string{"0", "1", "2"}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted: got %v, want %v", got, want)
	}
}
