// Package validate is the stateless rule engine for raw field values.
//
// Rules form a closed set of tagged variants evaluated by exhaustive
// matching; there is no name-to-function lookup, so an unknown rule cannot
// exist at runtime.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"exptrack/internal/config"
	"exptrack/internal/core"
)

type kind int

const (
	kindRequired kind = iota
	kindEmail
	kindNumber
	kindPositiveNumber
	kindMaxLength
	kindMinLength
	kindDateValid
	kindFutureDate
	kindAmount
)

// Rule is one validation predicate, optionally carrying its parameter.
type Rule struct {
	kind  kind
	limit int
}

// Required fails on empty or whitespace-only values.
func Required() Rule { return Rule{kind: kindRequired} }

// Email checks for a plausible address shape.
func Email() Rule { return Rule{kind: kindEmail} }

// Number accepts any finite decimal.
func Number() Rule { return Rule{kind: kindNumber} }

// PositiveNumber accepts finite decimals strictly greater than zero.
func PositiveNumber() Rule { return Rule{kind: kindPositiveNumber} }

// MaxLength bounds the value length in characters.
func MaxLength(max int) Rule { return Rule{kind: kindMaxLength, limit: max} }

// MinLength requires at least min characters.
func MinLength(min int) Rule { return Rule{kind: kindMinLength, limit: min} }

// DateValid requires a parseable calendar date.
func DateValid() Rule { return Rule{kind: kindDateValid} }

// FutureDate rejects dates after the current time.
func FutureDate() Rule { return Rule{kind: kindFutureDate} }

// Amount requires a positive decimal within the configured bounds.
func Amount() Rule { return Rule{kind: kindAmount} }

// Result is the outcome of applying a rule list to one value.
type Result struct {
	IsValid bool
	Errors  []string
}

// Validator evaluates rules against raw values. It carries the configured
// bounds and the category taxonomy so it can be constructed per test without
// shared global state.
type Validator struct {
	minAmount      float64
	maxAmount      float64
	maxDescription int
	categories     config.Categories
	now            func() time.Time
}

// New builds a validator from the application configuration.
func New(cfg *config.Config) *Validator {
	return &Validator{
		minAmount:      cfg.Validation.MinAmount,
		maxAmount:      cfg.Validation.MaxAmount,
		maxDescription: cfg.Validation.MaxDescriptionLength,
		categories:     cfg.GetCategories(),
		now:            time.Now,
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate applies every rule in order and collects one message per failing
// rule. IsValid is true iff no rule failed.
func (v *Validator) Validate(value string, rules []Rule) Result {
	var errs []string
	for _, rule := range rules {
		if !v.apply(value, rule) {
			errs = append(errs, v.message(rule))
		}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

func (v *Validator) apply(value string, rule Rule) bool {
	switch rule.kind {
	case kindRequired:
		return strings.TrimSpace(value) != ""
	case kindEmail:
		return emailPattern.MatchString(value)
	case kindNumber:
		return isNumber(value)
	case kindPositiveNumber:
		return isPositiveNumber(value)
	case kindMaxLength:
		return utf8.RuneCountInString(value) <= rule.limit
	case kindMinLength:
		return utf8.RuneCountInString(value) >= rule.limit
	case kindDateValid:
		_, err := core.ParseDate(value)
		return err == nil
	case kindFutureDate:
		d, err := core.ParseDate(value)
		return err == nil && !d.After(v.now())
	case kindAmount:
		num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || num <= 0 {
			return false
		}
		return num >= v.minAmount && num <= v.maxAmount
	}
	return false
}

func (v *Validator) message(rule Rule) string {
	switch rule.kind {
	case kindRequired:
		return "This field is required"
	case kindEmail:
		return "Please enter a valid email address"
	case kindNumber:
		return "Please enter a valid number"
	case kindPositiveNumber:
		return "Please enter a positive number"
	case kindMaxLength:
		return fmt.Sprintf("Maximum %d characters allowed", rule.limit)
	case kindMinLength:
		return fmt.Sprintf("Minimum %d characters required", rule.limit)
	case kindDateValid:
		return "Please enter a valid date"
	case kindFutureDate:
		return "Date cannot be in the future"
	case kindAmount:
		return fmt.Sprintf("Amount must be between %g and %g", v.minAmount, v.maxAmount)
	}
	return "Invalid input"
}

func isNumber(value string) bool {
	num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil && !math.IsNaN(num) && !math.IsInf(num, 0)
}

func isPositiveNumber(value string) bool {
	return isNumber(value) && mustParse(value) > 0
}

func mustParse(value string) float64 {
	num, _ := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return num
}
