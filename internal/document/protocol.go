package document

// Answer is the user's reply to "save changes?".
type Answer int

const (
	AnswerCancel Answer = iota
	AnswerYes
	AnswerNo
)

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "cancel"
	}
}

// Prompter asks the user the questions the save/close protocol needs.
type Prompter interface {
	// ConfirmSave asks whether to save changes to the named document.
	ConfirmSave(title string) Answer
	// SavePath asks for a destination path. ok is false if the user aborted.
	SavePath(suggested string) (path string, ok bool)
}

// SaveResult is the outcome of Save and SaveAs.
type SaveResult int

const (
	Saved SaveResult = iota
	Cancelled
	Failed
)

func (r SaveResult) String() string {
	switch r {
	case Saved:
		return "ok"
	case Cancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Decision is the outcome of a close request.
type Decision int

const (
	Proceed Decision = iota
	Cancel
)

func (d Decision) String() string {
	if d == Proceed {
		return "proceed"
	}
	return "cancel"
}

// Save writes the buffer to its path, or behaves as SaveAs when the document
// is untitled. On failure the modified flag is left as it was and the error
// describes the cause.
func (d *Document) Save(p Prompter) (SaveResult, error) {
	if d.path == "" {
		return d.SaveAs(p)
	}
	if err := d.write(d.path); err != nil {
		return Failed, err
	}
	return Saved, nil
}

// SaveAs asks for a destination and writes the buffer there. The document is
// rebound to the new path only when the write succeeds.
func (d *Document) SaveAs(p Prompter) (SaveResult, error) {
	suggested := d.path
	if suggested == "" {
		suggested = d.Title() + ".kms"
	}
	path, ok := p.SavePath(suggested)
	if !ok || path == "" {
		return Cancelled, nil
	}
	abs, err := NormalizePath(path)
	if err != nil {
		return Failed, err
	}
	if d.guard != nil {
		if err := d.guard(abs); err != nil {
			return Failed, err
		}
	}
	if err := d.write(abs); err != nil {
		return Failed, err
	}
	return Saved, nil
}

// Close runs the close protocol. A clean document closes without asking. A
// modified one asks to save: yes saves and proceeds only if the save
// succeeded, no discards, cancel keeps the document open. The error is set
// when a save was attempted and failed.
func (d *Document) Close(p Prompter) (Decision, error) {
	if !d.modified {
		return Proceed, nil
	}
	switch p.ConfirmSave(d.Title()) {
	case AnswerYes:
		res, err := d.Save(p)
		if res != Saved {
			return Cancel, err
		}
		return Proceed, nil
	case AnswerNo:
		return Proceed, nil
	default:
		return Cancel, nil
	}
}
