package domain

import (
	"fmt"
	"strings"
)

// StackID identifies a software stack by name and version, e.g. "HDP-3.0".
type StackID struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ParseStackID parses "NAME-version" into a StackID. Input without a dash is
// treated as a bare stack name.
func ParseStackID(s string) StackID {
	if idx := strings.LastIndex(s, "-"); idx > 0 {
		return StackID{Name: s[:idx], Version: s[idx+1:]}
	}
	return StackID{Name: s}
}

func (s StackID) String() string {
	if s.Version == "" {
		return s.Name
	}
	return s.Name + "-" + s.Version
}

// ResolvedComponent is an immutable value identifying a component after
// stack-aware resolution: the component name, its owning service, and whether
// it is a master component. Values are comparable and safe to use as map keys.
type ResolvedComponent struct {
	Stack       StackID
	ServiceName string
	Name        string
	Master      bool
}

func (c ResolvedComponent) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Stack, c.ServiceName, c.Name)
}
