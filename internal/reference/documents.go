package reference

import (
	"database/sql"

	"github.com/google/uuid"

	"refdata/internal/catalog"
	"refdata/internal/mapping"
)

type IdentityDocumentCategory struct {
	catalog.Base
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

func identityDocumentCategories() catalog.Definition[IdentityDocumentCategory, IdentityDocumentCategory] {
	return definition(entity[IdentityDocumentCategory]{
		Name:       "identity-document-categories",
		Table:      "identity_document_categories",
		IDColumn:   "category_id",
		Meta:       func(c *IdentityDocumentCategory) *catalog.Base { return &c.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(c *IdentityDocumentCategory) *string { return &c.Code },
		Columns: []column[IdentityDocumentCategory]{
			text("name", "name", func(c *IdentityDocumentCategory) *string { return &c.Name }),
			text("description", "description", func(c *IdentityDocumentCategory) *string { return &c.Description }),
		},
	}, catalog.Identity[IdentityDocumentCategory]())
}

type IdentityDocument struct {
	catalog.Base
	Code        string                    `json:"code" validate:"required,max=20"`
	Name        string                    `json:"name" validate:"required,max=150"`
	CategoryID  *uuid.UUID                `json:"categoryId,omitempty"`
	CountryID   *uuid.UUID                `json:"countryId,omitempty"`
	Description string                    `json:"description" validate:"omitempty,max=500"`
	Category    *IdentityDocumentCategory `json:"category,omitempty" validate:"-"`
}

func identityDocuments() catalog.Definition[IdentityDocument, IdentityDocument] {
	return definition(entity[IdentityDocument]{
		Name:       "identity-documents",
		Table:      "identity_documents",
		IDColumn:   "identity_document_id",
		Meta:       func(d *IdentityDocument) *catalog.Base { return &d.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(d *IdentityDocument) *string { return &d.Code },
		Columns: []column[IdentityDocument]{
			text("name", "name", func(d *IdentityDocument) *string { return &d.Name }),
			foreignKey("categoryId", "category_id", func(d *IdentityDocument) **uuid.UUID { return &d.CategoryID }),
			foreignKey("countryId", "country_id", func(d *IdentityDocument) **uuid.UUID { return &d.CountryID }),
			text("description", "description", func(d *IdentityDocument) *string { return &d.Description }),
		},
		Scopes: []catalog.Scope{
			{Path: "country", Field: "countryId"},
			{Path: "category", Field: "categoryId"},
		},
	}, catalog.Identity(func(d *IdentityDocument) { d.Category = nil }))
}

type DocumentTemplateType struct {
	catalog.Base
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

func documentTemplateTypes() catalog.Definition[DocumentTemplateType, DocumentTemplateType] {
	return definition(entity[DocumentTemplateType]{
		Name:       "document-template-types",
		Table:      "document_template_types",
		IDColumn:   "template_type_id",
		Meta:       func(t *DocumentTemplateType) *catalog.Base { return &t.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(t *DocumentTemplateType) *string { return &t.Code },
		Columns: []column[DocumentTemplateType]{
			text("name", "name", func(t *DocumentTemplateType) *string { return &t.Name }),
			text("description", "description", func(t *DocumentTemplateType) *string { return &t.Description }),
		},
	}, catalog.Identity[DocumentTemplateType]())
}

// DocumentTemplate is the stored row; variables are JSON text.
type DocumentTemplate struct {
	catalog.Base
	Code              string
	Name              string
	TemplateTypeID    *uuid.UUID
	Content           string
	Locale            string
	TemplateVariables sql.NullString
}

// DocumentTemplateDTO is the wire shape of a document template.
type DocumentTemplateDTO struct {
	catalog.Base
	Code              string                `json:"code" validate:"required,max=30"`
	Name              string                `json:"name" validate:"required,max=150"`
	TemplateTypeID    *uuid.UUID            `json:"templateTypeId,omitempty"`
	Content           string                `json:"content" validate:"required"`
	Locale            string                `json:"locale" validate:"omitempty,bcp47_language_tag"`
	TemplateVariables mapping.Attributes    `json:"templateVariables,omitempty"`
	TemplateType      *DocumentTemplateType `json:"templateType,omitempty" validate:"-"`
}

func documentTemplateMapper() catalog.Mapper[DocumentTemplate, DocumentTemplateDTO] {
	return catalog.Mapper[DocumentTemplate, DocumentTemplateDTO]{
		ToDTO: func(t *DocumentTemplate) (*DocumentTemplateDTO, error) {
			vars, err := mapping.DecodeAttributes(t.TemplateVariables)
			if err != nil {
				return nil, err
			}
			return &DocumentTemplateDTO{
				Base:              t.Base,
				Code:              t.Code,
				Name:              t.Name,
				TemplateTypeID:    t.TemplateTypeID,
				Content:           t.Content,
				Locale:            t.Locale,
				TemplateVariables: vars,
			}, nil
		},
		ToRecord: func(d *DocumentTemplateDTO) (*DocumentTemplate, error) {
			vars, err := mapping.EncodeAttributes(d.TemplateVariables)
			if err != nil {
				return nil, err
			}
			return &DocumentTemplate{
				Base:              d.Base,
				Code:              d.Code,
				Name:              d.Name,
				TemplateTypeID:    d.TemplateTypeID,
				Content:           d.Content,
				Locale:            d.Locale,
				TemplateVariables: vars,
			}, nil
		},
	}
}

func documentTemplates() catalog.Definition[DocumentTemplate, DocumentTemplateDTO] {
	return definition(entity[DocumentTemplate]{
		Name:       "document-templates",
		Table:      "document_templates",
		IDColumn:   "template_id",
		Meta:       func(t *DocumentTemplate) *catalog.Base { return &t.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(t *DocumentTemplate) *string { return &t.Code },
		Columns: []column[DocumentTemplate]{
			text("name", "name", func(t *DocumentTemplate) *string { return &t.Name }),
			foreignKey("templateTypeId", "template_type_id", func(t *DocumentTemplate) **uuid.UUID { return &t.TemplateTypeID }),
			text("content", "content", func(t *DocumentTemplate) *string { return &t.Content }),
			text("locale", "locale", func(t *DocumentTemplate) *string { return &t.Locale }),
			attributes("templateVariables", "template_variables", func(t *DocumentTemplate) *sql.NullString { return &t.TemplateVariables }),
		},
		Scopes: []catalog.Scope{{Path: "type", Field: "templateTypeId"}},
	}, documentTemplateMapper())
}
