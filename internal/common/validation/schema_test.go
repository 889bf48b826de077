package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"age":  {"type": "integer", "minimum": 0}
	},
	"required": ["name"]
}`

func TestSchema_ValidateJSON(t *testing.T) {
	schema := MustCompile(personSchema)

	tests := []struct {
		name       string
		doc        string
		valid      bool
		wantFields []string
	}{
		{name: "valid", doc: `{"name":"fred","age":30}`, valid: true},
		{name: "missing name", doc: `{"age":30}`, valid: false, wantFields: []string{"name"}},
		{name: "empty name", doc: `{"name":""}`, valid: false, wantFields: []string{"name"}},
		{name: "negative age", doc: `{"name":"fred","age":-1}`, valid: false, wantFields: []string{"age"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.ValidateJSON(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)

			var fields []string
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
				assert.NotEmpty(t, e.Code)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestSchema_MalformedDocument(t *testing.T) {
	schema := MustCompile(personSchema)

	_, err := schema.ValidateJSON(`{"name":`)
	assert.Error(t, err)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}

func TestValidationResult_Error(t *testing.T) {
	r := &ValidationResult{Errors: []ValidationError{
		{Field: "name", Message: "is required"},
		{Field: "age", Message: "must be positive"},
	}}
	assert.Equal(t, "age: must be positive; name: is required", r.Error())
}
