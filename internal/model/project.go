package model

import "fmt"

// Project is a named grouping entity. Projects hold no balance of their
// own; a project's financial position is always recomputed by scanning the
// transactions that reference it.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

// Validate checks the project is well-formed.
func (p Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("project has no id")
	}
	if p.Name == "" {
		return fmt.Errorf("project %s has no name", p.ID)
	}
	return nil
}
