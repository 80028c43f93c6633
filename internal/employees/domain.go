package employees

import "time"

// Employee is a personnel record. It shares its integer identifier space with
// user accounts: the self-access check compares the record ID against the
// caller's user ID directly, with no separate link between the two tables.
type Employee struct {
	ID        int64
	Name      string
	Email     string
	Position  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
