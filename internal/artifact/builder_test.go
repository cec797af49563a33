package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder(t *testing.T) {
	b := &Builder{}
	b.Define("unique_id", "1").Directive("random_seed", "7").Line("end")

	assert.Equal(t, "$define unique_id 1\nrandom_seed 7\nend\n", b.String())
	assert.Equal(t, []byte(b.String()), b.Bytes())
}

func TestBuilder_Empty(t *testing.T) {
	assert.Empty(t, (&Builder{}).String())
}
