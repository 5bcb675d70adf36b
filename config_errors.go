package statusview

import "html/template"

// RenderConfigErrors formats validation errors as an alert banner. Nothing is
// rendered for an empty list. Errors are listed in the order given.
func RenderConfigErrors(errs []string) (template.HTML, error) {
	if len(errs) == 0 {
		return "", nil
	}
	return executeTemplate("configErrors", errs)
}
