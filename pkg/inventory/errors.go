package inventory

import "fmt"

// ToolDoesNotExistError is returned when a lookup names a tool that is not
// present in the inventory.
type ToolDoesNotExistError struct {
	Name string
}

func (e *ToolDoesNotExistError) Error() string {
	return fmt.Sprintf("tool %q does not exist", e.Name)
}

func NewToolDoesNotExistError(name string) *ToolDoesNotExistError {
	return &ToolDoesNotExistError{Name: name}
}

func (e *ToolDoesNotExistError) Is(target error) bool {
	if target == nil {
		return false
	}
	other, ok := target.(*ToolDoesNotExistError)
	return ok && other.Name == e.Name
}
