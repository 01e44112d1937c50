package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyNormalization(t *testing.T) {
	base := key("Скільки коштує деталь двигуна?")

	assert.Equal(t, base, key("скільки коштує деталь двигуна?"))
	assert.Equal(t, base, key("  Скільки   коштує деталь двигуна?  "))
	assert.NotEqual(t, base, key("інше питання"))
	assert.True(t, strings.HasPrefix(base, "answer:"))
}
