package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "&lt;script&gt;", SanitizeInput("<script>"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+14*******00", MaskPhone("+14155550100"))
	assert.Equal(t, "****", MaskPhone("+12"))
	assert.Equal(t, "****", MaskPhone(""))
}
