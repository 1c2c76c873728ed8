package reference

import (
	"database/sql"

	"github.com/google/uuid"

	"refdata/internal/catalog"
	"refdata/internal/mapping"
)

type LookupDomain struct {
	catalog.Base
	Code           string        `json:"code" validate:"required,max=50"`
	Name           string        `json:"name" validate:"required,max=150"`
	Description    string        `json:"description" validate:"omitempty,max=500"`
	ParentDomainID *uuid.UUID    `json:"parentDomainId,omitempty"`
	Parent         *LookupDomain `json:"parent,omitempty" validate:"-"`
}

func lookupDomains() catalog.Definition[LookupDomain, LookupDomain] {
	return definition(entity[LookupDomain]{
		Name:       "lookup-domains",
		Table:      "lookup_domains",
		IDColumn:   "domain_id",
		Meta:       func(d *LookupDomain) *catalog.Base { return &d.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(d *LookupDomain) *string { return &d.Code },
		Columns: []column[LookupDomain]{
			text("name", "name", func(d *LookupDomain) *string { return &d.Name }),
			text("description", "description", func(d *LookupDomain) *string { return &d.Description }),
			foreignKey("parentDomainId", "parent_domain_id", func(d *LookupDomain) **uuid.UUID { return &d.ParentDomainID }),
		},
		ParentField: "parentDomainId",
	}, catalog.Identity(func(d *LookupDomain) { d.Parent = nil }))
}

// LookupItem is the stored row; extra attributes are JSON text.
type LookupItem struct {
	catalog.Base
	Code         string
	DomainID     uuid.UUID
	Label        string
	Description  string
	SortOrder    int
	ParentItemID *uuid.UUID
	ExtraJSON    sql.NullString
}

// LookupItemDTO is the wire shape of a lookup item.
type LookupItemDTO struct {
	catalog.Base
	Code         string             `json:"code" validate:"required,max=50"`
	DomainID     uuid.UUID          `json:"domainId" validate:"required"`
	Label        string             `json:"label" validate:"required,max=150"`
	Description  string             `json:"description" validate:"omitempty,max=500"`
	SortOrder    int                `json:"sortOrder" validate:"gte=0"`
	ParentItemID *uuid.UUID         `json:"parentItemId,omitempty"`
	ExtraJSON    mapping.Attributes `json:"extraJson,omitempty"`
	Parent       *LookupItemDTO     `json:"parent,omitempty" validate:"-"`
}

func lookupItemMapper() catalog.Mapper[LookupItem, LookupItemDTO] {
	return catalog.Mapper[LookupItem, LookupItemDTO]{
		ToDTO: func(i *LookupItem) (*LookupItemDTO, error) {
			extra, err := mapping.DecodeAttributes(i.ExtraJSON)
			if err != nil {
				return nil, err
			}
			return &LookupItemDTO{
				Base:         i.Base,
				Code:         i.Code,
				DomainID:     i.DomainID,
				Label:        i.Label,
				Description:  i.Description,
				SortOrder:    i.SortOrder,
				ParentItemID: i.ParentItemID,
				ExtraJSON:    extra,
			}, nil
		},
		ToRecord: func(d *LookupItemDTO) (*LookupItem, error) {
			extra, err := mapping.EncodeAttributes(d.ExtraJSON)
			if err != nil {
				return nil, err
			}
			return &LookupItem{
				Base:         d.Base,
				Code:         d.Code,
				DomainID:     d.DomainID,
				Label:        d.Label,
				Description:  d.Description,
				SortOrder:    d.SortOrder,
				ParentItemID: d.ParentItemID,
				ExtraJSON:    extra,
			}, nil
		},
	}
}

func lookupItems() catalog.Definition[LookupItem, LookupItemDTO] {
	return definition(entity[LookupItem]{
		Name:       "lookup-items",
		Table:      "lookup_items",
		IDColumn:   "item_id",
		Meta:       func(i *LookupItem) *catalog.Base { return &i.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(i *LookupItem) *string { return &i.Code },
		Columns: []column[LookupItem]{
			requiredForeignKey("domainId", "domain_id", func(i *LookupItem) *uuid.UUID { return &i.DomainID }),
			text("label", "label", func(i *LookupItem) *string { return &i.Label }),
			text("description", "description", func(i *LookupItem) *string { return &i.Description }),
			integer("sortOrder", "sort_order", func(i *LookupItem) *int { return &i.SortOrder }),
			foreignKey("parentItemId", "parent_item_id", func(i *LookupItem) **uuid.UUID { return &i.ParentItemID }),
			attributes("extraJson", "extra_json", func(i *LookupItem) *sql.NullString { return &i.ExtraJSON }),
		},
		SortField:   "sortOrder",
		ParentField: "parentItemId",
		Scopes:      []catalog.Scope{{Path: "domain", Field: "domainId"}},
	}, lookupItemMapper())
}
