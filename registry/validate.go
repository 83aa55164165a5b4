package registry

// Requirement is an argument declaration that can be required.
type Requirement interface {
	ArgName() string
	IsRequired() bool
}

// ValidateRequiredArguments returns *MissingArgumentsError naming every
// required argument absent from provided, or nil. An argument whose value is
// nil counts as absent.
func ValidateRequiredArguments[R Requirement](provided map[string]any, decls []R) error {
	var missing []string
	for _, d := range decls {
		if !d.IsRequired() {
			continue
		}
		if v, ok := provided[d.ArgName()]; !ok || v == nil {
			missing = append(missing, d.ArgName())
		}
	}
	if len(missing) > 0 {
		return &MissingArgumentsError{Names: missing}
	}
	return nil
}
