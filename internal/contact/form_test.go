package contact

import "testing"

func TestSubmittable(t *testing.T) {
	testCases := []struct {
		name string
		form Form
		want bool
	}{
		{"complete", Form{"Jo", "a@b.com", "hi"}, true},
		{"no tld", Form{"Jo", "a@b", "hi"}, false},
		{"no at", Form{"Jo", "ab.com", "hi"}, false},
		{"empty name", Form{"", "a@b.com", "hi"}, false},
		{"empty email", Form{"Jo", "", "hi"}, false},
		{"empty message", Form{"Jo", "a@b.com", ""}, false},
		{"all empty", Form{}, false},
		{"whitespace around address", Form{"Jo", " jo@x.com ", "hi"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.form.Submittable(); got != tc.want {
				t.Errorf("Submittable(%+v) = %v, want %v", tc.form, got, tc.want)
			}
		})
	}
}

func TestValidateReportsEmailFirst(t *testing.T) {
	err := Form{Email: "nope"}.Validate()
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if ve.Field != FieldEmail || ve.Reason != MsgInvalidEmail {
		t.Errorf("Expected email error, got %+v", ve)
	}
	if err := (Form{"Jo", "jo@x.com", "hi"}).Validate(); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestParseField(t *testing.T) {
	testCases := map[string]Field{
		"name":     FieldName,
		"fullName": FieldName,
		"EMAIL":    FieldEmail,
		"message":  FieldMessage,
	}
	for in, want := range testCases {
		got, err := ParseField(in)
		if err != nil || got != want {
			t.Errorf("ParseField(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseField("phone"); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestTemplateParams(t *testing.T) {
	p := Form{"Jo", "jo@x.com", "hi"}.Payload().TemplateParams()
	if p["from_name"] != "Jo" || p["from_email"] != "jo@x.com" || p["message"] != "hi" {
		t.Errorf("Unexpected params %v", p)
	}
}
