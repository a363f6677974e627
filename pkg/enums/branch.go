package enums

import (
	"fmt"
	"strings"
)

// Branch identifies one of the three company branches.
type Branch string

const (
	BranchCE Branch = "CE"
	BranchSC Branch = "SC"
	BranchSP Branch = "SP"
)

var validBranches = []Branch{
	BranchCE,
	BranchSC,
	BranchSP,
}

// Branches returns the branches in canonical order.
func Branches() []Branch {
	return append([]Branch(nil), validBranches...)
}

// String implements fmt.Stringer.
func (b Branch) String() string {
	return string(b)
}

// IsValid reports whether the value is a known Branch.
func (b Branch) IsValid() bool {
	for _, candidate := range validBranches {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBranch converts raw input into a Branch.
func ParseBranch(value string) (Branch, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validBranches {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid branch %q", value)
}
