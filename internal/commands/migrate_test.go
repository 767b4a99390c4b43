package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheme_Ordered(t *testing.T) {
	require.NotEmpty(t, scheme)

	for i, s := range scheme {
		assert.Equal(t, i+1, s.Index, "scheme entries must be numbered consecutively")
		assert.NotEmpty(t, s.Description)
		assert.NotEmpty(t, strings.TrimSpace(s.Query))
	}
}

func TestScheme_RegistrationsUniquePerEmployee(t *testing.T) {
	var query string
	for _, s := range scheme {
		if strings.Contains(s.Query, "CREATE TABLE IF NOT EXISTS registrations") {
			query = s.Query
		}
	}

	require.NotEmpty(t, query)
	assert.Contains(t, query, "unique (employee_id)")
	assert.Contains(t, query, "check (session in ('Day', 'Night'))")
}

func TestPending(t *testing.T) {
	assert.Len(t, pending(0), len(scheme))
	assert.Empty(t, pending(len(scheme)))

	rest := pending(len(scheme) - 2)
	require.Len(t, rest, 2)
	assert.Equal(t, len(scheme)-1, rest[0].Index)
}
