package reference

import (
	"github.com/google/uuid"

	"refdata/internal/catalog"
)

type ActivityCode struct {
	catalog.Base
	Code                 string        `json:"code" validate:"required,max=20"`
	Name                 string        `json:"name" validate:"required,max=250"`
	Description          string        `json:"description" validate:"omitempty,max=1000"`
	ParentActivityCodeID *uuid.UUID    `json:"parentActivityCodeId,omitempty"`
	Parent               *ActivityCode `json:"parent,omitempty" validate:"-"`
}

func activityCodes() catalog.Definition[ActivityCode, ActivityCode] {
	return definition(entity[ActivityCode]{
		Name:       "activity-codes",
		Table:      "activity_codes",
		IDColumn:   "activity_code_id",
		Meta:       func(a *ActivityCode) *catalog.Base { return &a.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(a *ActivityCode) *string { return &a.Code },
		Columns: []column[ActivityCode]{
			text("name", "name", func(a *ActivityCode) *string { return &a.Name }),
			text("description", "description", func(a *ActivityCode) *string { return &a.Description }),
			foreignKey("parentActivityCodeId", "parent_activity_code_id", func(a *ActivityCode) **uuid.UUID { return &a.ParentActivityCodeID }),
		},
		ParentField: "parentActivityCodeId",
	}, catalog.Identity(func(a *ActivityCode) { a.Parent = nil }))
}

type TransactionCategory struct {
	catalog.Base
	Code             string               `json:"code" validate:"required,max=30"`
	Name             string               `json:"name" validate:"required,max=150"`
	Description      string               `json:"description" validate:"omitempty,max=500"`
	ParentCategoryID *uuid.UUID           `json:"parentCategoryId,omitempty"`
	Parent           *TransactionCategory `json:"parent,omitempty" validate:"-"`
}

func transactionCategories() catalog.Definition[TransactionCategory, TransactionCategory] {
	return definition(entity[TransactionCategory]{
		Name:       "transaction-categories",
		Table:      "transaction_categories",
		IDColumn:   "transaction_category_id",
		Meta:       func(c *TransactionCategory) *catalog.Base { return &c.Base },
		CodeField:  "code",
		CodeColumn: "code",
		Code:       func(c *TransactionCategory) *string { return &c.Code },
		Columns: []column[TransactionCategory]{
			text("name", "name", func(c *TransactionCategory) *string { return &c.Name }),
			text("description", "description", func(c *TransactionCategory) *string { return &c.Description }),
			foreignKey("parentCategoryId", "parent_category_id", func(c *TransactionCategory) **uuid.UUID { return &c.ParentCategoryID }),
		},
		ParentField: "parentCategoryId",
	}, catalog.Identity(func(c *TransactionCategory) { c.Parent = nil }))
}
