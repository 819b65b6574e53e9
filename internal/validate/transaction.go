package validate

import (
	"exptrack/internal/core"
)

// TransactionResult aggregates per-field validation outcomes. Errors maps a
// field name to the first failing rule's message for that field.
type TransactionResult struct {
	IsValid bool
	Errors  map[string]string
}

// ValidateTransaction applies the field-specific rule sets to a raw record.
//
// Category membership is always checked against the list scoped to the
// record's declared type: "Transportation" on an income record is invalid
// even though it is a valid expense category. When the type itself is
// invalid the membership check is skipped, since no list applies.
func (v *Validator) ValidateTransaction(in core.Input) TransactionResult {
	errs := make(map[string]string)

	typeOK := false
	if r := v.Validate(in.Type, []Rule{Required()}); !r.IsValid {
		errs["type"] = r.Errors[0]
	} else if !core.Type(in.Type).Valid() {
		errs["type"] = "Invalid transaction type"
	} else {
		typeOK = true
	}

	if r := v.Validate(in.Date, []Rule{Required(), DateValid()}); !r.IsValid {
		errs["date"] = r.Errors[0]
	}

	if r := v.Validate(in.Description, []Rule{Required(), MaxLength(v.maxDescription)}); !r.IsValid {
		errs["description"] = r.Errors[0]
	}

	if r := v.Validate(in.Category, []Rule{Required()}); !r.IsValid {
		errs["category"] = r.Errors[0]
	} else if typeOK && !v.categoryAllowed(core.Type(in.Type), in.Category) {
		errs["category"] = "Invalid category selected"
	}

	if r := v.Validate(in.Amount, []Rule{Required(), Amount()}); !r.IsValid {
		errs["amount"] = r.Errors[0]
	}

	return TransactionResult{IsValid: len(errs) == 0, Errors: errs}
}

func (v *Validator) categoryAllowed(typ core.Type, category string) bool {
	var list []string
	switch typ {
	case core.Income:
		list = v.categories.Income
	case core.Expense:
		list = v.categories.Expense
	}
	for _, c := range list {
		if c == category {
			return true
		}
	}
	return false
}
