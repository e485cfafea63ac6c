package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, Struct(sample{Username: "alice_01", Email: "a@example.com", Password: "Secr3t!pass"}))
}

func TestStruct_CollectsAllErrors(t *testing.T) {
	msgs := Struct(sample{Username: "a", Email: "nope", Password: "short"})
	assert.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "username")
	assert.Contains(t, msgs[1], "email")
	assert.Contains(t, msgs[2], "password")
}

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Abcdef1!", true},
		{"abcdef1!", false},       // no upper
		{"ABCDEF1!", false},       // no lower
		{"Abcdefg!", false},       // no digit
		{"Abcdefg1", false},       // no special
		{"Ab1!", false},           // too short
		{"Abcdef1! space", false}, // outside allowed classes
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrongPassword(tt.in), tt.in)
	}

	long := "Aa1!"
	for len(long) <= maxPasswordLength {
		long += "x"
	}
	assert.False(t, StrongPassword(long))
}
