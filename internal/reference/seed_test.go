package reference

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refdata/internal/changes"
	"refdata/internal/query"
)

const seedYAML = `
lookup-items:
  - code: SINGLE
    domainId: 6f1c2a8e-3b4d-4c5e-8f90-1a2b3c4d5e6f
    label: Single
    status: ACTIVE
    extraJson:
      legacyCode: S
countries:
  - isoCode: US
    countryName: United States
    region: NA
    status: ACTIVE
  - isoCode: FR
    countryName: France
    region: EU
    status: ACTIVE
lookup-domains:
  - id: 6f1c2a8e-3b4d-4c5e-8f90-1a2b3c4d5e6f
    code: MARITAL
    name: Marital status
    status: ACTIVE
`

func TestParseSeed(t *testing.T) {
	t.Run("entities keep their items as JSON", func(t *testing.T) {
		file, err := ParseSeed(strings.NewReader(seedYAML))
		require.NoError(t, err)

		assert.Len(t, file, 3)
		assert.Len(t, file["countries"], 2)
		assert.JSONEq(t,
			`{"isoCode":"US","countryName":"United States","region":"NA","status":"ACTIVE"}`,
			string(file["countries"][0]))
	})

	t.Run("empty document", func(t *testing.T) {
		file, err := ParseSeed(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, file)
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("countries: [unterminated"))
		assert.Error(t, err)
	})
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	outbox := changes.NewMemoryOutbox()
	registry := New(Deps{Changes: outbox, Logger: discardLogger()})

	file, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	t.Run("items load in dependency order", func(t *testing.T) {
		results, err := registry.Seed(ctx, file, discardLogger())
		require.NoError(t, err)

		assert.Equal(t, SeedResult{Created: 2}, results["countries"])
		assert.Equal(t, SeedResult{Created: 1}, results["lookup-domains"])
		assert.Equal(t, SeedResult{Created: 1}, results["lookup-items"])
		assert.Equal(t, 4, outbox.Pending())

		items := registry.byName["lookup-items"].(*module[LookupItem, LookupItemDTO])
		single, err := items.service.GetByCode(ctx, "SINGLE")
		require.NoError(t, err)
		require.NotNil(t, single)
		assert.Equal(t, uuid.MustParse("6f1c2a8e-3b4d-4c5e-8f90-1a2b3c4d5e6f"), single.DomainID)
		assert.Equal(t, "S", single.ExtraJSON["legacyCode"])
	})

	t.Run("a second run skips existing codes", func(t *testing.T) {
		results, err := registry.Seed(ctx, file, discardLogger())
		require.NoError(t, err)

		assert.Equal(t, SeedResult{Skipped: 2}, results["countries"])
		assert.Equal(t, SeedResult{Skipped: 1}, results["lookup-items"])

		countries := registry.byName["countries"].(*module[Country, Country])
		page, err := countries.service.List(ctx, query.PageRequest{Size: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.TotalElements)
	})

	t.Run("unknown entities are rejected before anything is written", func(t *testing.T) {
		before := outbox.Pending()
		_, err := registry.Seed(ctx, SeedFile{
			"planets":    nil,
			"currencies": file["countries"],
		}, discardLogger())

		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown entity "planets"`)
		assert.Equal(t, before, outbox.Pending())
	})

	t.Run("unknown fields fail the entity", func(t *testing.T) {
		bad, err := ParseSeed(strings.NewReader(`
titles:
  - code: DR
    name: Doctor
    status: ACTIVE
    honorific: true
`))
		require.NoError(t, err)

		_, err = registry.Seed(ctx, bad, discardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "titles[0]")
	})
}
