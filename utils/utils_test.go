package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "0912***6789", MaskPhone("09123456789"))
	assert.Equal(t, "0912", MaskPhone("0912"))
}

func TestToPtr(t *testing.T) {
	v := ToPtr(42)
	assert.NotNil(t, v)
	assert.Equal(t, 42, *v)
}
