package store

import "github.com/raushankrgupta/fitly/models"

// Changes is a field-level change-set for one user record. A plaintext
// password is held apart from the other fields and marked dirty until
// ApplyPasswordHash replaces it, so it can never reach the database.
type Changes struct {
	set       map[string]any
	inc       map[string]int
	unset     []string
	password  string
	passDirty bool
}

func NewChanges() *Changes {
	return &Changes{set: map[string]any{}, inc: map[string]int{}}
}

func (c *Changes) Set(field string, value any) *Changes {
	c.set[field] = value
	return c
}

// Inc adds n to a numeric field in the same write
func (c *Changes) Inc(field string, n int) *Changes {
	c.inc[field] += n
	return c
}

func (c *Changes) Unset(field string) *Changes {
	delete(c.set, field)
	c.unset = append(c.unset, field)
	return c
}

// SetPassword stages a new plaintext password
func (c *Changes) SetPassword(plain string) *Changes {
	c.password = plain
	c.passDirty = true
	return c
}

// PasswordDirty reports whether a plaintext password is waiting to be hashed
func (c *Changes) PasswordDirty() bool {
	return c.passDirty
}

// PlainPassword returns the staged plaintext password
func (c *Changes) PlainPassword() string {
	return c.password
}

// ApplyPasswordHash swaps the staged plaintext for its hash
func (c *Changes) ApplyPasswordHash(hash string) {
	c.set[models.FieldPassword] = hash
	c.password = ""
	c.passDirty = false
}

func (c *Changes) Empty() bool {
	return len(c.set) == 0 && len(c.inc) == 0 && len(c.unset) == 0 && !c.passDirty
}

// Fields returns the staged assignments
func (c *Changes) Fields() map[string]any {
	return c.set
}

// Increments returns the staged counter increments
func (c *Changes) Increments() map[string]int {
	return c.inc
}

// Unsets returns the fields staged for removal
func (c *Changes) Unsets() []string {
	return c.unset
}
