package idgen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	orderRe := regexp.MustCompile(`^order_[a-zA-Z0-9]{16}$`)
	payRe := regexp.MustCompile(`^pay_[a-zA-Z0-9]{16}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := Order()
		assert.Regexp(t, orderRe, id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Regexp(t, payRe, Payment())
}
