package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/olgasafonova/devops-tools-api/internal/errors"
	"github.com/olgasafonova/devops-tools-api/internal/store"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	return v
}

func TestValidateJSON_Valid(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name string
		body string
		want store.Tool
	}{
		{
			name: "required fields only",
			body: `{"name":"Terraform","category":"IaC"}`,
			want: store.Tool{Name: "Terraform", Category: "IaC"},
		},
		{
			name: "all fields",
			body: `{"name":"Prometheus","description":"Monitoring","category":"Observability","is_open_source":true}`,
			want: store.Tool{Name: "Prometheus", Description: store.StringPtr("Monitoring"), Category: "Observability", IsOpenSource: true},
		},
		{
			name: "explicit null description",
			body: `{"name":"Vault","description":null,"category":"Secrets"}`,
			want: store.Tool{Name: "Vault", Category: "Secrets"},
		},
		{
			name: "unknown keys ignored",
			body: `{"name":"Helm","category":"Packaging","stars":26000}`,
			want: store.Tool{Name: "Helm", Category: "Packaging"},
		},
		{
			name: "empty category allowed",
			body: `{"name":"Make","category":""}`,
			want: store.Tool{Name: "Make", Category: ""},
		},
		{
			name: "boolean as string",
			body: `{"name":"Ansible","category":"IaC","is_open_source":"true"}`,
			want: store.Tool{Name: "Ansible", Category: "IaC", IsOpenSource: true},
		},
		{
			name: "boolean as word",
			body: `{"name":"Ansible","category":"IaC","is_open_source":"No"}`,
			want: store.Tool{Name: "Ansible", Category: "IaC"},
		},
		{
			name: "boolean as one",
			body: `{"name":"Ansible","category":"IaC","is_open_source":1}`,
			want: store.Tool{Name: "Ansible", Category: "IaC", IsOpenSource: true},
		},
		{
			name: "boolean as zero",
			body: `{"name":"Ansible","category":"IaC","is_open_source":0}`,
			want: store.Tool{Name: "Ansible", Category: "IaC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateJSON([]byte(tt.body))
			if !res.OK() {
				t.Fatalf("ValidateJSON() errors = %v", res.Errors)
			}
			if res.Err() != nil {
				t.Errorf("Err() = %v, want nil", res.Err())
			}
			if diff := cmp.Diff(tt.want, res.Tool); diff != "" {
				t.Errorf("Tool mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateJSON_Invalid(t *testing.T) {
	v := newTestValidator(t)

	type want struct {
		typ string
		loc []string
	}
	tests := []struct {
		name string
		body string
		want []want
	}{
		{
			name: "missing name",
			body: `{"category":"IaC"}`,
			want: []want{{apperrors.TypeMissing, []string{"body", "name"}}},
		},
		{
			name: "missing both required",
			body: `{}`,
			want: []want{
				{apperrors.TypeMissing, []string{"body", "name"}},
				{apperrors.TypeMissing, []string{"body", "category"}},
			},
		},
		{
			name: "empty name",
			body: `{"name":"","category":"IaC"}`,
			want: []want{{apperrors.TypeStringShort, []string{"body", "name"}}},
		},
		{
			name: "name wrong type",
			body: `{"name":42,"category":"IaC"}`,
			want: []want{{apperrors.TypeStringType, []string{"body", "name"}}},
		},
		{
			name: "description wrong type",
			body: `{"name":"x","description":["a"],"category":"IaC"}`,
			want: []want{{apperrors.TypeStringType, []string{"body", "description"}}},
		},
		{
			name: "is_open_source unparseable string",
			body: `{"name":"x","category":"IaC","is_open_source":"maybe"}`,
			want: []want{{apperrors.TypeBoolParsing, []string{"body", "is_open_source"}}},
		},
		{
			name: "is_open_source out of range number",
			body: `{"name":"x","category":"IaC","is_open_source":2}`,
			want: []want{{apperrors.TypeBoolParsing, []string{"body", "is_open_source"}}},
		},
		{
			name: "is_open_source wrong type",
			body: `{"name":"x","category":"IaC","is_open_source":[true]}`,
			want: []want{{apperrors.TypeBoolType, []string{"body", "is_open_source"}}},
		},
		{
			name: "malformed json",
			body: `{"name":`,
			want: []want{{apperrors.TypeJSONInvalid, []string{"body"}}},
		},
		{
			name: "array body",
			body: `[1,2]`,
			want: []want{{apperrors.TypeObjectType, []string{"body"}}},
		},
		{
			name: "empty body",
			body: ``,
			want: []want{{apperrors.TypeMissing, []string{"body"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateJSON([]byte(tt.body))
			if res.OK() {
				t.Fatal("ValidateJSON() succeeded, want errors")
			}
			if !apperrors.IsValidation(res.Err()) {
				t.Errorf("Err() = %v, want ValidationError", res.Err())
			}
			if len(res.Errors) != len(tt.want) {
				t.Fatalf("got %d errors %v, want %d", len(res.Errors), res.Errors, len(tt.want))
			}
			for i, w := range tt.want {
				if res.Errors[i].Type != w.typ {
					t.Errorf("error[%d].Type = %q, want %q", i, res.Errors[i].Type, w.typ)
				}
				if diff := cmp.Diff(w.loc, res.Errors[i].Loc); diff != "" {
					t.Errorf("error[%d].Loc mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestValidateMap_CustomLocation(t *testing.T) {
	v := newTestValidator(t)

	res := v.ValidateMap(map[string]any{"name": "x"}, "arguments")
	if res.OK() {
		t.Fatal("ValidateMap() succeeded, want missing category")
	}
	if diff := cmp.Diff([]string{"arguments", "category"}, res.Errors[0].Loc); diff != "" {
		t.Errorf("Loc mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateTool(t *testing.T) {
	v := newTestValidator(t)

	ok := store.Tool{Name: "Helm", Description: store.StringPtr("Charts"), Category: "Packaging", IsOpenSource: true}
	res := v.ValidateTool(ok, "arguments")
	if !res.OK() {
		t.Fatalf("ValidateTool() errors = %v", res.Errors)
	}
	if diff := cmp.Diff(ok, res.Tool); diff != "" {
		t.Errorf("Tool mismatch (-want +got):\n%s", diff)
	}

	res = v.ValidateTool(store.Tool{Category: "Packaging"}, "arguments")
	if res.OK() {
		t.Fatal("ValidateTool() accepted empty name")
	}
	if res.Errors[0].Type != apperrors.TypeStringShort {
		t.Errorf("Type = %q, want %q", res.Errors[0].Type, apperrors.TypeStringShort)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"999", 999, false},
		{"-3", -3, false},
		{"abc", 0, true},
		{"1.5", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseID(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseID(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				if !apperrors.IsValidation(err) {
					t.Errorf("ParseID(%q) error = %v, want ValidationError", tt.raw, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestToolSchema(t *testing.T) {
	s := ToolSchema()

	if diff := cmp.Diff([]string{"name", "category"}, s.Required); diff != "" {
		t.Errorf("Required mismatch (-want +got):\n%s", diff)
	}
	for _, name := range fieldOrder {
		if _, ok := s.Properties[name]; !ok {
			t.Errorf("schema missing property %q", name)
		}
	}
}
