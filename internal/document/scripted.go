package document

// Scripted is a Prompter with answers collected ahead of time. Interactive
// front ends gather the user's replies first and then run the protocol with
// a Scripted prompter.
type Scripted struct {
	Answer Answer
	Path   string // "" means the picker was aborted

	Confirms int // number of ConfirmSave calls
	Picks    int // number of SavePath calls
}

func (s *Scripted) ConfirmSave(string) Answer {
	s.Confirms++
	return s.Answer
}

func (s *Scripted) SavePath(string) (string, bool) {
	s.Picks++
	return s.Path, s.Path != ""
}

// Queue answers a run of save prompts from a list of Scripted answers, one
// per document asked about. SavePath questions go to the answer taken by the
// latest ConfirmSave. An exhausted queue answers cancel.
type Queue struct {
	items []*Scripted
	cur   *Scripted
}

// Push appends the answers for the next document.
func (q *Queue) Push(s *Scripted) {
	q.items = append(q.items, s)
}

// Len returns the number of unused answers.
func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) ConfirmSave(title string) Answer {
	if len(q.items) == 0 {
		q.cur = nil
		return AnswerCancel
	}
	q.cur, q.items = q.items[0], q.items[1:]
	return q.cur.ConfirmSave(title)
}

func (q *Queue) SavePath(suggested string) (string, bool) {
	if q.cur == nil {
		return "", false
	}
	return q.cur.SavePath(suggested)
}
