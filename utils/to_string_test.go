package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type level int

func (l level) String() string { return "N" + ToString(int(l)) }

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString("abc"))
	assert.Equal(t, "42", ToString(42))
	assert.Equal(t, "-7", ToString(int64(-7)))
	assert.Equal(t, "7", ToString(uint8(7)))
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "N5", ToString(level(5)))
	assert.Equal(t, "boom", ToString(errors.New("boom")))
	assert.Equal(t, "1m30s", ToString(90*time.Second))
	assert.Equal(t, "2024-01-02T03:04:05Z", ToString(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, `{"a":1}`, ToString(map[string]int{"a": 1}))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "user:42:N3", Join(":", "user", 42, level(3)))
	assert.Equal(t, "", Join(":"))
}
