package enums

import "fmt"

// NFeOperation is the resolved direction of an NFe stock movement.
type NFeOperation string

const (
	NFeOperationEntry NFeOperation = "entry"
	NFeOperationExit  NFeOperation = "exit"
)

var validNFeOperations = []NFeOperation{
	NFeOperationEntry,
	NFeOperationExit,
}

// String implements fmt.Stringer.
func (o NFeOperation) String() string {
	return string(o)
}

// IsValid reports whether the value is a known NFeOperation.
func (o NFeOperation) IsValid() bool {
	for _, candidate := range validNFeOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseNFeOperation converts raw input into an NFeOperation.
func ParseNFeOperation(value string) (NFeOperation, error) {
	for _, candidate := range validNFeOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid nfe operation %q", value)
}

// Sign returns the stock delta multiplier for the operation.
func (o NFeOperation) Sign() int {
	if o == NFeOperationExit {
		return -1
	}
	return 1
}
