package profiles

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func baseContent() Content {
	return Content{
		Name:     "Ivan",
		Position: "Backend developer",
		Contacts: map[string]string{"email": "ivan@example.com"},
		Summary:  "Python developer",
		Skills:   []string{"Python"},
		Experience: []Experience{
			{Company: "TechSoft", Position: "Backend developer", Period: "2021 - now"},
		},
		Education: []Education{
			{Institution: "MIPT", Degree: "BSc", Period: "2016 - 2020"},
		},
	}
}

func TestMergeFirstVersionHasNoCarryForward(t *testing.T) {
	got := Merge(nil, Fields{Name: strPtr("Ivan"), Skills: []string{"Python"}})

	want := Content{Name: "Ivan", Skills: []string{"Python"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge(nil) = %+v, want %+v", got, want)
	}
}

func TestMergeCarriesOmittedFields(t *testing.T) {
	prev := baseContent()
	got := Merge(&prev, Fields{Skills: []string{"Python", "Go"}})

	if got.Name != "Ivan" {
		t.Fatalf("expected name carried forward, got %q", got.Name)
	}
	if !reflect.DeepEqual(got.Skills, []string{"Python", "Go"}) {
		t.Fatalf("expected skills overridden, got %v", got.Skills)
	}
	if !reflect.DeepEqual(got.Experience, prev.Experience) {
		t.Fatalf("expected experience carried forward, got %+v", got.Experience)
	}
	if !reflect.DeepEqual(got.Contacts, prev.Contacts) {
		t.Fatalf("expected contacts carried forward, got %+v", got.Contacts)
	}
}

func TestMergeOverridesSuppliedFields(t *testing.T) {
	prev := baseContent()
	tests := []struct {
		name   string
		update Fields
		check  func(t *testing.T, got Content)
	}{
		{
			name:   "name",
			update: Fields{Name: strPtr("Petr")},
			check: func(t *testing.T, got Content) {
				if got.Name != "Petr" {
					t.Fatalf("got name %q", got.Name)
				}
			},
		},
		{
			name:   "explicit empty summary",
			update: Fields{Summary: strPtr("")},
			check: func(t *testing.T, got Content) {
				if got.Summary != "" {
					t.Fatalf("expected summary cleared, got %q", got.Summary)
				}
			},
		},
		{
			name:   "empty skills list replaces",
			update: Fields{Skills: []string{}},
			check: func(t *testing.T, got Content) {
				if got.Skills == nil || len(got.Skills) != 0 {
					t.Fatalf("expected empty skills, got %#v", got.Skills)
				}
			},
		},
		{
			name:   "contacts replaced not merged",
			update: Fields{Contacts: map[string]string{"phone": "+7 999"}},
			check: func(t *testing.T, got Content) {
				want := map[string]string{"phone": "+7 999"}
				if !reflect.DeepEqual(got.Contacts, want) {
					t.Fatalf("expected %v, got %v", want, got.Contacts)
				}
			},
		},
		{
			name:   "education replaced",
			update: Fields{Education: []Education{{Institution: "MSU"}}},
			check: func(t *testing.T, got Content) {
				if len(got.Education) != 1 || got.Education[0].Institution != "MSU" {
					t.Fatalf("unexpected education %+v", got.Education)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Merge(&prev, tt.update))
		})
	}
}

func TestMergeEmptyUpdateIsIdentity(t *testing.T) {
	prev := baseContent()
	update := Fields{}
	if !update.Empty() {
		t.Fatalf("expected zero Fields to be empty")
	}
	got := Merge(&prev, update)
	if !reflect.DeepEqual(got, prev) {
		t.Fatalf("expected identical content, got %+v", got)
	}
}

func TestMergeResultDoesNotAliasInputs(t *testing.T) {
	prev := baseContent()
	skills := []string{"Go"}
	got := Merge(&prev, Fields{Skills: skills})

	skills[0] = "mutated"
	got.Contacts["email"] = "changed@example.com"
	got.Experience[0].Company = "Other"

	if got.Skills[0] != "Go" {
		t.Fatalf("result aliases update skills")
	}
	if prev.Contacts["email"] != "ivan@example.com" {
		t.Fatalf("result aliases previous contacts")
	}
	if prev.Experience[0].Company != "TechSoft" {
		t.Fatalf("result aliases previous experience")
	}
}
