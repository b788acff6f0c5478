package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePrefixPatternEscapesMetacharacters(t *testing.T) {
	assert.Equal(t, `BK-%`, likePrefixPattern("BK"))
	// Underscore and percent must match literally, not as LIKE wildcards:
	// otherwise a COMP_X counter would claim COMPAX vouchers too.
	assert.Equal(t, `COMP\_X-%`, likePrefixPattern("COMP_X"))
	assert.Equal(t, `P\%Q-%`, likePrefixPattern("P%Q"))
	assert.Equal(t, `A\\B-%`, likePrefixPattern(`A\B`))
}
