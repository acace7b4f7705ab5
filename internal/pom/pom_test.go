package pom

import (
	"errors"
	"strings"
	"testing"

	"github.com/matsen/depviz/internal/gav"
)

const libPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.acme</groupId>
    <artifactId>acme-parent</artifactId>
    <version>3</version>
  </parent>
  <artifactId>acme-lib</artifactId>
  <version>${revision}</version>
  <properties>
    <revision>${major}.1</revision>
    <major>2</major>
    <junit.version>5.10.0</junit.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
      <version>2.0.9</version>
    </dependency>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <version>${junit.version}</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>com.acme</groupId>
      <artifactId>acme-core</artifactId>
      <version>${project.version}</version>
      <optional>true</optional>
    </dependency>
    <dependency>
      <groupId>com.other</groupId>
      <artifactId>managed</artifactId>
    </dependency>
    <dependency>
      <groupId>com.other</groupId>
      <artifactId>unresolved</artifactId>
      <version>${nope}</version>
    </dependency>
    <dependency>
      <artifactId>no-group</artifactId>
    </dependency>
  </dependencies>
</project>`

func TestParse_Inheritance(t *testing.T) {
	p, err := Parse(strings.NewReader(libPOM))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := gav.New("com.acme", "acme-lib", "2.1")
	if p.Coordinates != want {
		t.Errorf("Coordinates = %v, want %v", p.Coordinates, want)
	}
	if len(p.Dependencies) != 6 {
		t.Fatalf("got %d dependencies, want 6: %+v", len(p.Dependencies), p.Dependencies)
	}

	parent := p.Dependencies[0]
	if parent.Ref.String() != "com.acme:acme-parent:3" || parent.Scope != ParentScope {
		t.Errorf("parent dependency = %+v", parent)
	}
}

func TestParse_Dependencies(t *testing.T) {
	p, err := Parse(strings.NewReader(libPOM))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		idx      int
		gav      string
		scope    string
		optional *bool
	}{
		{1, "org.slf4j:slf4j-api:2.0.9", DefaultScope, nil},
		{2, "org.junit.jupiter:junit-jupiter:5.10.0", "test", nil},
		{3, "com.acme:acme-core:2.1", DefaultScope, boolPtr(true)},
		{4, "com.other:managed:Unknown", DefaultScope, nil},
		{5, "com.other:unresolved:Unknown", DefaultScope, nil},
	}
	for _, tt := range tests {
		d := p.Dependencies[tt.idx]
		if d.Ref.String() != tt.gav {
			t.Errorf("dep %d = %s, want %s", tt.idx, d.Ref, tt.gav)
		}
		if d.EffectiveScope() != tt.scope {
			t.Errorf("dep %d scope = %s, want %s", tt.idx, d.EffectiveScope(), tt.scope)
		}
		if (d.Optional == nil) != (tt.optional == nil) || (d.Optional != nil && *d.Optional != *tt.optional) {
			t.Errorf("dep %d optional = %v, want %v", tt.idx, d.Optional, tt.optional)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		wantErr error
	}{
		{"missing artifact", `<project><groupId>g</groupId></project>`, ErrMissingArtifactID},
		{"missing group", `<project><artifactId>a</artifactId></project>`, ErrMissingGroupID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.xml))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Parse(strings.NewReader("not xml at all")); err == nil {
		t.Error("expected error for malformed XML")
	}
}

func TestParse_SelfParentSkipped(t *testing.T) {
	xml := `<project>
  <parent><groupId>g</groupId><artifactId>a</artifactId><version>1</version></parent>
  <artifactId>a</artifactId>
</project>`
	p, err := Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatal(err)
	}
	if p.Coordinates.String() != "g:a:1" {
		t.Errorf("Coordinates = %v", p.Coordinates)
	}
	if len(p.Dependencies) != 0 {
		t.Errorf("self-parent should not be a dependency: %+v", p.Dependencies)
	}
}

func TestParse_NoVersionIsUnknown(t *testing.T) {
	p, err := Parse(strings.NewReader(`<project><groupId>g</groupId><artifactId>a</artifactId></project>`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Coordinates.Version != gav.UnknownVersion {
		t.Errorf("Version = %q, want %q", p.Coordinates.Version, gav.UnknownVersion)
	}
}

func TestResolve_BoundedPasses(t *testing.T) {
	props := map[string]string{"a": "${b}", "b": "${a}"}
	got := resolve("${a}", props)
	if !strings.Contains(got, "${") {
		t.Errorf("cyclic properties should stay unresolved, got %q", got)
	}
	if normalizeVersion("${a}", props) != gav.UnknownVersion {
		t.Error("cyclic version should normalize to Unknown")
	}
}

func boolPtr(b bool) *bool { return &b }
