package reference

import (
	"github.com/google/uuid"

	"refdata/internal/catalog"
)

type Country struct {
	catalog.Base
	IsoCode     string `json:"isoCode" validate:"required,len=2,alpha,uppercase"`
	Iso3Code    string `json:"iso3Code" validate:"omitempty,len=3,alpha,uppercase"`
	CountryName string `json:"countryName" validate:"required,max=100"`
	NumericCode string `json:"numericCode" validate:"omitempty,len=3,numeric"`
	PhoneCode   string `json:"phoneCode" validate:"omitempty,max=10"`
	Region      Region `json:"region" validate:"required,oneof=AF AN AS EU NA OC SA"`
}

func countries() catalog.Definition[Country, Country] {
	return definition(entity[Country]{
		Name:       "countries",
		Table:      "countries",
		IDColumn:   "country_id",
		Meta:       func(c *Country) *catalog.Base { return &c.Base },
		CodeField:  "isoCode",
		CodeColumn: "iso_code",
		Code:       func(c *Country) *string { return &c.IsoCode },
		Columns: []column[Country]{
			text("iso3Code", "iso3_code", func(c *Country) *string { return &c.Iso3Code }),
			text("countryName", "country_name", func(c *Country) *string { return &c.CountryName }),
			text("numericCode", "numeric_code", func(c *Country) *string { return &c.NumericCode }),
			text("phoneCode", "phone_code", func(c *Country) *string { return &c.PhoneCode }),
			regionColumn("region", "region", func(c *Country) *Region { return &c.Region }),
		},
		Scopes: []catalog.Scope{{Path: "region", Field: "region"}},
	}, catalog.Identity[Country]())
}

type Currency struct {
	catalog.Base
	Code          string `json:"code" validate:"required,len=3,alpha,uppercase"`
	Name          string `json:"name" validate:"required,max=100"`
	Symbol        string `json:"symbol" validate:"omitempty,max=10"`
	DecimalPlaces int    `json:"decimalPlaces" validate:"gte=0,lte=6"`
}

func currencies() catalog.Definition[Currency, Currency] {
	return definition(entity[Currency]{
		Name:       "currencies",
		Table:      "currencies",
		IDColumn:   "currency_id",
		Meta:       func(c *Currency) *catalog.Base { return &c.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(c *Currency) *string { return &c.Code },
		Columns: []column[Currency]{
			text("name", "name", func(c *Currency) *string { return &c.Name }),
			text("symbol", "symbol", func(c *Currency) *string { return &c.Symbol }),
			integer("decimalPlaces", "decimal_places", func(c *Currency) *int { return &c.DecimalPlaces }),
		},
	}, catalog.Identity[Currency]())
}

type Language struct {
	catalog.Base
	Code       string `json:"code" validate:"required,max=12,bcp47_language_tag"`
	Name       string `json:"name" validate:"required,max=100"`
	NativeName string `json:"nativeName" validate:"omitempty,max=100"`
}

func languages() catalog.Definition[Language, Language] {
	return definition(entity[Language]{
		Name:       "languages",
		Table:      "languages",
		IDColumn:   "language_id",
		Meta:       func(l *Language) *catalog.Base { return &l.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(l *Language) *string { return &l.Code },
		Columns: []column[Language]{
			text("name", "name", func(l *Language) *string { return &l.Name }),
			text("nativeName", "native_name", func(l *Language) *string { return &l.NativeName }),
		},
	}, catalog.Identity[Language]())
}

type AdministrativeDivision struct {
	catalog.Base
	Code             string                  `json:"code" validate:"required,max=20"`
	Name             string                  `json:"name" validate:"required,max=150"`
	DivisionType     string                  `json:"divisionType" validate:"required,max=50"`
	CountryID        uuid.UUID               `json:"countryId" validate:"required"`
	ParentDivisionID *uuid.UUID              `json:"parentDivisionId,omitempty"`
	Parent           *AdministrativeDivision `json:"parent,omitempty" validate:"-"`
}

func administrativeDivisions() catalog.Definition[AdministrativeDivision, AdministrativeDivision] {
	return definition(entity[AdministrativeDivision]{
		Name:       "administrative-divisions",
		Table:      "administrative_divisions",
		IDColumn:   "division_id",
		Meta:       func(d *AdministrativeDivision) *catalog.Base { return &d.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(d *AdministrativeDivision) *string { return &d.Code },
		Columns: []column[AdministrativeDivision]{
			text("name", "name", func(d *AdministrativeDivision) *string { return &d.Name }),
			text("divisionType", "division_type", func(d *AdministrativeDivision) *string { return &d.DivisionType }),
			requiredForeignKey("countryId", "country_id", func(d *AdministrativeDivision) *uuid.UUID { return &d.CountryID }),
			foreignKey("parentDivisionId", "parent_division_id", func(d *AdministrativeDivision) **uuid.UUID { return &d.ParentDivisionID }),
		},
		ParentField: "parentDivisionId",
		Scopes:      []catalog.Scope{{Path: "country", Field: "countryId"}},
	}, catalog.Identity(func(d *AdministrativeDivision) { d.Parent = nil }))
}
