package transfer

// ProgressReporter receives byte counts while a file streams. done counts
// from the start of the file, so a resumed download starts above zero.
type ProgressReporter interface {
	Start(operation, name string, total, done int64)
	Update(done int64)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(string, string, int64, int64) {}
func (nopProgress) Update(int64)                       {}
func (nopProgress) Finish()                            {}
