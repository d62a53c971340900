package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStruct(t *testing.T) {
	name := "  <b>Bob</b>  "
	req := UpdateUserRequest{
		FirstName: &name,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "&lt;b&gt;Bob&lt;/b&gt;", *req.FirstName)
}

func TestSanitizeStruct_PlainFields(t *testing.T) {
	req := RegisterRequest{
		Email:     " alice@example.com ",
		Password:  "unchanged-pw",
		FirstName: "Alice",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice@example.com", req.Email)
	assert.Equal(t, "unchanged-pw", req.Password)
	assert.Equal(t, "Alice", req.FirstName)
}

func TestSanitizeStruct_NonStructIsNoop(t *testing.T) {
	s := "  raw  "
	SanitizeStruct(&s)
	assert.Equal(t, "  raw  ", s)

	SanitizeStruct(nil)
}
