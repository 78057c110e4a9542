package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	jira := &fakeExporter{key: "jira", onApproval: true}
	servicenow := &fakeExporter{key: "servicenow", onApproval: false}
	registry.Register(jira)
	registry.Register(servicenow)

	t.Run("All returns every exporter", func(t *testing.T) {
		assert.Len(t, registry.All(), 2)
	})

	t.Run("ApprovalTriggered filters on the trigger flag", func(t *testing.T) {
		triggered := registry.ApprovalTriggered()
		assert.Len(t, triggered, 1)
		assert.Equal(t, "jira", triggered[0].Key())
	})

	t.Run("Get finds exporters by key", func(t *testing.T) {
		exporter, ok := registry.Get("servicenow")
		assert.True(t, ok)
		assert.Equal(t, servicenow, exporter)

		_, ok = registry.Get("pagerduty")
		assert.False(t, ok)
	})
}
