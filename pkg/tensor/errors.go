package tensor

import "fmt"

// ShapeError indicates a vector length doesn't match the declared shape.
type ShapeError struct {
	Role     Role
	Expected int
	Actual   int
}

// Error implements error.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape error: %s expects %d elements, got %d", e.Role, e.Expected, e.Actual)
}
