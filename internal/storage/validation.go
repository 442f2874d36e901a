// Package storage provides the SQLite persistence layer for the budget application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Amount rules are written against the float value of the decimal.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateExpense trims the expense's text fields and rounds its amount to
// cents in place, then checks the struct rules declared on model.Expense.
func validateExpense(expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}

	expense.Person = strings.TrimSpace(expense.Person)
	expense.Category = strings.TrimSpace(expense.Category)
	expense.Subcategory = strings.TrimSpace(expense.Subcategory)
	expense.Description = strings.TrimSpace(expense.Description)
	expense.PaymentMethod = strings.TrimSpace(expense.PaymentMethod)
	expense.Amount = expense.Amount.Round(2)

	return structError(common.ErrInvalidExpense, validate.Struct(expense))
}

// validateEstimate trims the estimate's names in place and checks the
// struct rules declared on model.BudgetEstimate.
func validateEstimate(estimate *model.BudgetEstimate) error {
	if estimate == nil {
		return fmt.Errorf("%w: estimate", ErrNilParameter)
	}

	estimate.Category = strings.TrimSpace(estimate.Category)
	estimate.Subcategory = strings.TrimSpace(estimate.Subcategory)

	return structError(common.ErrInvalidEstimate, validate.Struct(estimate))
}

func structError(kind, err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", kind, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" "+describeRule(fe))
	}
	return fmt.Errorf("%w: %s", kind, strings.Join(msgs, "; "))
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
