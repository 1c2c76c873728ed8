package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndStable(t *testing.T) {
	first, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].Version, first[i].Version)
	}
	for _, m := range first {
		assert.Len(t, m.Checksum, 64)
		assert.NotEmpty(t, strings.TrimSpace(m.SQL), m.Version)
	}

	again, err := Migrations()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestReferenceSchemaCoversEveryTable(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	schema := all.String()

	for _, table := range []string{
		"countries", "currencies", "languages", "administrative_divisions",
		"titles", "occupations", "legal_forms", "contract_types",
		"relationship_types", "bank_codes", "consents",
		"identity_document_categories", "identity_documents",
		"document_template_types", "document_templates",
		"lookup_domains", "lookup_items", "activity_codes",
		"transaction_categories", "outbox",
	} {
		assert.Contains(t, schema, "CREATE TABLE "+table+" (", table)
	}
}
