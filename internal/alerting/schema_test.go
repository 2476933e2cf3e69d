package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The schema is what rule-editing UIs build conditions from, so it must stay
// in lockstep with the validation whitelists.
func TestSchemaMatchesWhitelists(t *testing.T) {
	t.Parallel()

	schema := GetSchema()

	assert.Len(t, schema.Metrics, len(validMetrics))
	for _, m := range schema.Metrics {
		_, ok := validMetrics[m.Name]
		assert.Truef(t, ok, "schema metric %s missing from whitelist", m.Name)
		assert.NotEmpty(t, m.Label)
	}

	assert.Len(t, schema.Operators, len(validOperators))
	for _, op := range schema.Operators {
		_, ok := validOperators[op.Name]
		assert.Truef(t, ok, "schema operator %s missing from whitelist", op.Name)
	}

	assert.Equal(t, []string{"critical", "high", "medium", "low"}, schema.Severities)
}
