package audit

import (
	"testing"

	"osmclean/internal/config"
)

func referenceValidator() *AttributeValidator {
	ref := config.Reference()

	return NewAttributeValidator(ref.Audit.Types, ref.Audit.SpecialChars)
}

func TestAttributeValidator_Check(t *testing.T) {
	v := referenceValidator()

	tests := []struct {
		name     string
		attr     string
		value    string
		wantKind FindingKind
		wantN    int
	}{
		{name: "clean timestamp", attr: "timestamp", value: "2017-03-10T12:00:00Z"},
		{name: "date only timestamp", attr: "timestamp", value: "2017-03-10", wantKind: FindingConversionFailed, wantN: 1},
		{name: "clean uid", attr: "uid", value: "42"},
		{name: "alpha uid", attr: "uid", value: "abc", wantKind: FindingConversionFailed, wantN: 1},
		{name: "clean lat", attr: "lat", value: "-15.7801"},
		{name: "bad lon", attr: "lon", value: "47,9", wantKind: FindingConversionFailed, wantN: 1},
		{name: "NaN lat", attr: "lat", value: "NaN", wantKind: FindingConversionFailed, wantN: 1},
		{name: "infinite lon", attr: "lon", value: "-Inf", wantKind: FindingConversionFailed, wantN: 1},
		{name: "clean role", attr: "role", value: "outer"},
		{name: "key with two specials", attr: "k", value: "name.pt@x", wantKind: FindingSpecialChar, wantN: 2},
		{name: "user with apostrophe", attr: "user", value: "O'Brien", wantKind: FindingSpecialChar, wantN: 1},
		{name: "plain user", attr: "user", value: "joao"},
		{name: "unaudited value", attr: "v", value: "Av. Central & co"},
		{name: "unknown attribute", attr: "visible", value: "true", wantKind: FindingNotCovered, wantN: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := v.Check(tt.attr, tt.value)
			if len(findings) != tt.wantN {
				t.Fatalf("Check(%s=%q) = %v, want %d findings", tt.attr, tt.value, findings, tt.wantN)
			}

			for _, f := range findings {
				if f.Kind != tt.wantKind {
					t.Errorf("finding kind = %s, want %s", f.Kind, tt.wantKind)
				}

				if f.Attribute != tt.attr || f.Value != tt.value {
					t.Errorf("finding = %+v, want attribute %s value %q", f, tt.attr, tt.value)
				}
			}
		})
	}
}

func TestAttributeValidator_ReferenceUser(t *testing.T) {
	findings := referenceValidator().Check("user", "O'Brien")
	if len(findings) != 1 {
		t.Fatalf("Check(user) = %v, want one finding", findings)
	}

	if findings[0].Kind != FindingSpecialChar || findings[0].Char != "'" {
		t.Errorf("finding = %+v, want special char '", findings[0])
	}
}

func TestAttributeValidator_BucketPrecedence(t *testing.T) {
	v := NewAttributeValidator(config.TypeTable{
		Int:    []string{"ref"},
		String: []string{"ref"},
	}, "")

	if typ, _ := v.TypeOf("ref"); typ != TypeInt {
		t.Errorf("TypeOf(ref) = %s, want int", typ)
	}
}

func TestAttributeValidator_ValidateIndependentAttributes(t *testing.T) {
	v := referenceValidator()

	findings := v.Validate("node", map[string]string{
		"id":        "x1",
		"version":   "2",
		"uid":       "abc",
		"timestamp": "yesterday",
		"lat":       "1.0",
		"visible":   "true",
	})

	if len(findings) != 4 {
		t.Fatalf("Validate returned %d findings, want 4: %v", len(findings), findings)
	}

	wantOrder := []string{"id", "timestamp", "uid", "visible"}
	for i, f := range findings {
		if f.Attribute != wantOrder[i] {
			t.Errorf("findings[%d].Attribute = %s, want %s", i, f.Attribute, wantOrder[i])
		}

		if f.Element != "node" {
			t.Errorf("findings[%d].Element = %s, want node", i, f.Element)
		}
	}

	if findings[0].Err == nil {
		t.Error("conversion finding should carry the parse error")
	}
}

func TestFinding_String(t *testing.T) {
	tests := []struct {
		f    Finding
		want string
	}{
		{Finding{Kind: FindingConversionFailed, Element: "node", Attribute: "uid", Value: "abc"}, `node: can't convert uid="abc"`},
		{Finding{Kind: FindingNotCovered, Element: "way", Attribute: "visible"}, "way: attribute type not covered: visible"},
		{Finding{Kind: FindingSpecialChar, Element: "tag", Attribute: "k", Value: "a.b", Char: "."}, `tag: special char "." found in k="a.b"`},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
