package reference

import (
	"github.com/google/uuid"

	"refdata/internal/catalog"
)

type Title struct {
	catalog.Base
	Code   string `json:"code" validate:"required,max=20"`
	Name   string `json:"name" validate:"required,max=50"`
	Gender string `json:"gender" validate:"omitempty,oneof=MALE FEMALE NEUTRAL"`
}

func titles() catalog.Definition[Title, Title] {
	return definition(entity[Title]{
		Name:       "titles",
		Table:      "titles",
		IDColumn:   "title_id",
		Meta:       func(t *Title) *catalog.Base { return &t.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(t *Title) *string { return &t.Code },
		Columns: []column[Title]{
			text("name", "name", func(t *Title) *string { return &t.Name }),
			enum("gender", "gender", []string{"MALE", "FEMALE", "NEUTRAL"}, func(t *Title) *string { return &t.Gender }),
		},
	}, catalog.Identity[Title]())
}

type Occupation struct {
	catalog.Base
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"omitempty,max=500"`
	RiskLevel   string `json:"riskLevel" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
}

func occupations() catalog.Definition[Occupation, Occupation] {
	return definition(entity[Occupation]{
		Name:       "occupations",
		Table:      "occupations",
		IDColumn:   "occupation_id",
		Meta:       func(o *Occupation) *catalog.Base { return &o.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(o *Occupation) *string { return &o.Code },
		Columns: []column[Occupation]{
			text("name", "name", func(o *Occupation) *string { return &o.Name }),
			text("description", "description", func(o *Occupation) *string { return &o.Description }),
			enum("riskLevel", "risk_level", []string{"LOW", "MEDIUM", "HIGH"}, func(o *Occupation) *string { return &o.RiskLevel }),
		},
		Scopes: []catalog.Scope{{Path: "risk-level", Field: "riskLevel"}},
	}, catalog.Identity[Occupation]())
}

type LegalForm struct {
	catalog.Base
	Code        string     `json:"code" validate:"required,max=20"`
	Name        string     `json:"name" validate:"required,max=150"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	CountryID   *uuid.UUID `json:"countryId,omitempty"`
}

func legalForms() catalog.Definition[LegalForm, LegalForm] {
	return definition(entity[LegalForm]{
		Name:       "legal-forms",
		Table:      "legal_forms",
		IDColumn:   "legal_form_id",
		Meta:       func(l *LegalForm) *catalog.Base { return &l.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(l *LegalForm) *string { return &l.Code },
		Columns: []column[LegalForm]{
			text("name", "name", func(l *LegalForm) *string { return &l.Name }),
			text("description", "description", func(l *LegalForm) *string { return &l.Description }),
			foreignKey("countryId", "country_id", func(l *LegalForm) **uuid.UUID { return &l.CountryID }),
		},
		Scopes: []catalog.Scope{{Path: "country", Field: "countryId"}},
	}, catalog.Identity[LegalForm]())
}

type ContractType struct {
	catalog.Base
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

func contractTypes() catalog.Definition[ContractType, ContractType] {
	return definition(entity[ContractType]{
		Name:       "contract-types",
		Table:      "contract_types",
		IDColumn:   "contract_type_id",
		Meta:       func(c *ContractType) *catalog.Base { return &c.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(c *ContractType) *string { return &c.Code },
		Columns: []column[ContractType]{
			text("name", "name", func(c *ContractType) *string { return &c.Name }),
			text("description", "description", func(c *ContractType) *string { return &c.Description }),
		},
	}, catalog.Identity[ContractType]())
}

type RelationshipType struct {
	catalog.Base
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=150"`
	InverseCode string `json:"inverseCode" validate:"omitempty,max=20"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

func relationshipTypes() catalog.Definition[RelationshipType, RelationshipType] {
	return definition(entity[RelationshipType]{
		Name:       "relationship-types",
		Table:      "relationship_types",
		IDColumn:   "relationship_type_id",
		Meta:       func(r *RelationshipType) *catalog.Base { return &r.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(r *RelationshipType) *string { return &r.Code },
		Columns: []column[RelationshipType]{
			text("name", "name", func(r *RelationshipType) *string { return &r.Name }),
			text("inverseCode", "inverse_code", func(r *RelationshipType) *string { return &r.InverseCode }),
			text("description", "description", func(r *RelationshipType) *string { return &r.Description }),
		},
	}, catalog.Identity[RelationshipType]())
}

type BankCode struct {
	catalog.Base
	Code      string     `json:"code" validate:"required,max=20"`
	BankName  string     `json:"bankName" validate:"required,max=150"`
	SwiftCode string     `json:"swiftCode" validate:"omitempty,min=8,max=11,alphanum,uppercase"`
	CountryID *uuid.UUID `json:"countryId,omitempty"`
}

func bankCodes() catalog.Definition[BankCode, BankCode] {
	return definition(entity[BankCode]{
		Name:       "bank-codes",
		Table:      "bank_codes",
		IDColumn:   "bank_code_id",
		Meta:       func(b *BankCode) *catalog.Base { return &b.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(b *BankCode) *string { return &b.Code },
		Columns: []column[BankCode]{
			text("bankName", "bank_name", func(b *BankCode) *string { return &b.BankName }),
			text("swiftCode", "swift_code", func(b *BankCode) *string { return &b.SwiftCode }),
			foreignKey("countryId", "country_id", func(b *BankCode) **uuid.UUID { return &b.CountryID }),
		},
		Scopes: []catalog.Scope{{Path: "country", Field: "countryId"}},
	}, catalog.Identity[BankCode]())
}

type Consent struct {
	catalog.Base
	Code        string `json:"code" validate:"required,max=30"`
	Name        string `json:"name" validate:"required,max=150"`
	ConsentType string `json:"consentType" validate:"required,max=50"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Mandatory   bool   `json:"mandatory"`
	Version     int    `json:"version" validate:"gte=1"`
}

func consents() catalog.Definition[Consent, Consent] {
	return definition(entity[Consent]{
		Name:       "consents",
		Table:      "consents",
		IDColumn:   "consent_id",
		Meta:       func(c *Consent) *catalog.Base { return &c.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(c *Consent) *string { return &c.Code },
		Columns: []column[Consent]{
			text("name", "name", func(c *Consent) *string { return &c.Name }),
			text("consentType", "consent_type", func(c *Consent) *string { return &c.ConsentType }),
			text("description", "description", func(c *Consent) *string { return &c.Description }),
			boolean("mandatory", "mandatory", func(c *Consent) *bool { return &c.Mandatory }),
			integer("version", "version", func(c *Consent) *int { return &c.Version }),
		},
		Scopes: []catalog.Scope{{Path: "type", Field: "consentType"}},
	}, catalog.Identity[Consent]())
}
