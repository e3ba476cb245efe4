package console

import "github.com/charmbracelet/huh"

// PromptInput shows a single-line text prompt (password-masked when
// masked is true) and returns the entered value. This is the concrete
// implementation of the abstract prompt(question) -> answer collaborator
// spec.md §1 names as out of scope for the config schema itself, but
// which the askpass listener and the orchestrator's trust/bootstrap
// prompts need as ambient UI.
func PromptInput(title string, masked bool) (string, error) {
	var value string
	input := huh.NewInput().Title(title).Value(&value)
	if masked {
		input = input.EchoMode(huh.EchoModePassword)
	}
	form := huh.NewForm(huh.NewGroup(input)).WithAccessible(isAccessibleMode())
	if err := form.Run(); err != nil {
		return "", err
	}
	return value, nil
}

// PromptSelect shows a single-select list and returns the chosen option's
// value.
func PromptSelect(title string, options []string) (string, error) {
	var choice string
	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o, o)
	}
	form := huh.NewForm(
		huh.NewGroup(huh.NewSelect[string]().Title(title).Options(opts...).Value(&choice)),
	).WithAccessible(isAccessibleMode())
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

// PromptMultiSelect shows a multi-select list (used by `up --bootstrap`'s
// "split" mode, spec.md §4.7) and returns the chosen subset.
func PromptMultiSelect(title string, options []string) ([]string, error) {
	var chosen []string
	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o, o)
	}
	form := huh.NewForm(
		huh.NewGroup(huh.NewMultiSelect[string]().Title(title).Options(opts...).Value(&chosen)),
	).WithAccessible(isAccessibleMode())
	if err := form.Run(); err != nil {
		return nil, err
	}
	return chosen, nil
}
