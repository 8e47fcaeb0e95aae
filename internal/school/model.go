// Package school stores the classes and students of each tenant.
package school

import (
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/money"
)

// Class represents a row in the classes table.
type Class struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Fee       money.Amount
	CreatedAt time.Time

	// StudentCount is computed on list and get queries.
	StudentCount int
}

// Student represents a row in the students table.
type Student struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	ClassID   uuid.UUID
	Name      string
	CreatedAt time.Time

	// ClassName and ClassFee are joined from the student's class.
	ClassName string
	ClassFee  money.Amount
}
