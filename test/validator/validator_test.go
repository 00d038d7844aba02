package validator_test

import (
	"testing"

	"todo-app/src/validator"

	"github.com/stretchr/testify/assert"
)

type taskForm struct {
	Title    string `validate:"required,max=200,safe_text"`
	Memo     string `validate:"omitempty,safe_text"`
	Priority string `validate:"omitempty,oneof=high moderate low"`
	Color    string `validate:"omitempty,hexcolor"`
}

func TestCustomValidator_Validate(t *testing.T) {
	cv := validator.NewCustomValidator()

	tests := []struct {
		name    string
		form    taskForm
		wantErr bool
	}{
		{
			name: "valid form",
			form: taskForm{Title: "Buy groceries", Memo: "milk and eggs", Priority: "high", Color: "#3B82F6"},
		},
		{
			name:    "missing title",
			form:    taskForm{},
			wantErr: true,
		},
		{
			name:    "invalid priority value",
			form:    taskForm{Title: "Task", Priority: "urgent"},
			wantErr: true,
		},
		{
			name:    "invalid hex color",
			form:    taskForm{Title: "Task", Color: "blue"},
			wantErr: true,
		},
		{
			name:    "sql injection in title",
			form:    taskForm{Title: "'; DROP TABLE tasks; --"},
			wantErr: true,
		},
		{
			name:    "script tag in memo",
			form:    taskForm{Title: "Task", Memo: "<script>alert(1)</script>"},
			wantErr: true,
		},
		{
			name: "newlines in memo are allowed",
			form: taskForm{Title: "Task", Memo: "line one\nline two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cv.Validate(tt.form)

			if tt.wantErr {
				assert.Error(t, err)
				// エラー詳細が含まれていること
				ve, ok := err.(validator.ValidationErrors)
				assert.True(t, ok)
				assert.NotEmpty(t, ve.Errors)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCustomValidator_ValidateID(t *testing.T) {
	cv := validator.NewCustomValidator()

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "valid id", input: "42", want: 42},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "sql injection attempt", input: "1; DROP TABLE tasks", wantErr: true},
		{name: "too long", input: "12345678901", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := cv.ValidateID(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, id)
			}
		})
	}
}
