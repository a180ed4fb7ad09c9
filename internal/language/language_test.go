package language

import (
	"testing"
)

func TestLookupByPath_Extensions(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/app.py", "python"},
		{"lib.rs", "rust"},
		{"component.tsx", "tsx"},
		{"index.d.ts", "typescript"},
		{"Dockerfile", "dockerfile"},
		{"deploy/Dockerfile", "dockerfile"},
		{"Gemfile", "ruby"},
		{"script.SH", "bash"}, // extension match is case-insensitive
	}
	for _, tc := range cases {
		d := r.LookupByPath(tc.path)
		if d == nil {
			t.Errorf("LookupByPath(%q) = nil, want %s", tc.path, tc.want)
			continue
		}
		if d.Name != tc.want {
			t.Errorf("LookupByPath(%q) = %s, want %s", tc.path, d.Name, tc.want)
		}
	}
}

func TestLookupByPath_Unknown(t *testing.T) {
	r := NewRegistry()
	if d := r.LookupByPath("picture.png"); d != nil {
		t.Errorf("expected nil for unknown extension, got %s", d.Name)
	}
	if d := r.LookupByPath("LICENSE"); d != nil {
		t.Errorf("expected nil for unknown basename, got %s", d.Name)
	}
}

func TestLookupByPath_LongestExtensionWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&Descriptor{
		Name:         "typescript-decl",
		Extensions:   []string{".d.ts"},
		CommentKinds: []string{"comment"},
	})
	d := r.LookupByPath("api.d.ts")
	if d == nil || d.Name != "typescript-decl" {
		t.Fatalf("expected .d.ts to beat .ts, got %v", d)
	}
	if d := r.LookupByPath("api.ts"); d == nil || d.Name != "typescript" {
		t.Fatalf("plain .ts should still map to typescript, got %v", d)
	}
}

func TestRegister_ConflictLastWins(t *testing.T) {
	r := NewRegistry()
	conflicts := r.Register(&Descriptor{
		Name:         "mylang",
		Extensions:   []string{".py", ".ml2"},
		CommentKinds: []string{"comment"},
	})
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].Key != ".py" || conflicts[0].Previous != "python" || conflicts[0].Winner != "mylang" {
		t.Errorf("unexpected conflict record: %+v", conflicts[0])
	}
	if d := r.LookupByPath("x.py"); d == nil || d.Name != "mylang" {
		t.Errorf("last registration should win .py, got %v", d)
	}
}

func TestLookupByName(t *testing.T) {
	r := NewRegistry()
	if d := r.LookupByName("go"); d == nil || d.DisplayName != "Go" {
		t.Fatalf("LookupByName(go) = %v", d)
	}
	if d := r.LookupByName("nope"); d != nil {
		t.Fatalf("expected nil for unknown name, got %v", d)
	}
}

func TestAll_SortedAndComplete(t *testing.T) {
	r := NewRegistry()
	all := r.All()
	if len(all) < 20 {
		t.Fatalf("expected the full built-in table, got %d descriptors", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Fatalf("descriptors not sorted: %s >= %s", all[i-1].Name, all[i].Name)
		}
	}
}
