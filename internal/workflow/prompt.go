package workflow

// Prompter asks the operator to confirm destructive actions and to type
// free-text answers. ok is false when the prompt was dismissed.
type Prompter interface {
	Confirm(message string) bool
	Prompt(message, initial string) (answer string, ok bool)
}

// Answers is a non-interactive Prompter fed from command flags.
type Answers struct {
	Confirmed bool
	// Text nil means the prompt is dismissed.
	Text *string
}

func (a Answers) Confirm(string) bool { return a.Confirmed }

func (a Answers) Prompt(_, initial string) (string, bool) {
	if a.Text == nil {
		return initial, false
	}
	return *a.Text, true
}
