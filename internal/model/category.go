package model

import "fmt"

// CategoryKind splits categories into the two sides of the books.
type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

// Valid reports whether k is a known category kind.
func (k CategoryKind) Valid() bool {
	return k == CategoryIncome || k == CategoryExpense
}

// Category is a named classification tag. Whether a category is an
// equity-flow category (profit share, owner equity, withdrawals) or an
// operating one is configuration, not a stored field; see config.Equity.
type Category struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind CategoryKind `json:"kind"`
}

// Validate checks the category is well-formed.
func (c Category) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("category has no id")
	}
	if c.Name == "" {
		return fmt.Errorf("category %s has no name", c.ID)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("category %s has unknown kind %q", c.ID, c.Kind)
	}
	return nil
}
