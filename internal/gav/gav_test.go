package gav

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Ref
		wantOK bool
	}{
		{"full triple", "org.example:core:1.0", Ref{"org.example", "core", "1.0"}, true},
		{"version with colon", "g:a:1.0:jdk8", Ref{"g", "a", "1.0:jdk8"}, true},
		{"missing version", "g:a", Ref{"g", "a", ""}, false},
		{"only group", "g", Ref{"g", "", ""}, false},
		{"empty", "", Ref{}, false},
		{"empty artifact", "g::1", Ref{"g", "", "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if ok != tt.wantOK {
				t.Errorf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
		})
	}
}

func TestProject(t *testing.T) {
	r := New("A", "a", "1")
	tests := []struct {
		collapse Collapse
		want     string
	}{
		{Collapse{}, "A:a:1"},
		{Collapse{Version: true}, "A:a:*"},
		{Collapse{Group: true}, "A:*:1"},
		{Collapse{Group: true, Version: true}, "A:*:*"},
	}

	for _, tt := range tests {
		if got := Project(r, tt.collapse); got != tt.want {
			t.Errorf("Project(%v, %+v) = %q, want %q", r, tt.collapse, got, tt.want)
		}
	}
}

func TestProjectKey_Idempotent(t *testing.T) {
	for _, c := range []Collapse{{}, {Version: true}, {Group: true}, {Group: true, Version: true}} {
		once := ProjectKey("org.x:lib:2.1", c)
		twice := ProjectKey(once, c)
		if once != twice {
			t.Errorf("projection not idempotent for %+v: %q then %q", c, once, twice)
		}
	}
}

func TestProjectKey_Malformed(t *testing.T) {
	if got := ProjectKey("not-a-gav", Collapse{Version: true}); got != "not-a-gav" {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"g:a:1": "g:a:1",
		"g:a:*": "g:a",
		"g:*:1": "g (1)",
		"g:*:*": "g",
		"plain": "plain",
	}
	for id, want := range tests {
		if got := Label(id); got != want {
			t.Errorf("Label(%q) = %q, want %q", id, got, want)
		}
	}
}
