package display

import "sync"

// Write is one recorded row write.
type Write struct {
	Row  int
	Text string
}

// Fake is a test double recording writes.
type Fake struct {
	mu     sync.Mutex
	writes []Write
	clears int

	// WriteError, if set, will be returned by WriteLine()
	WriteError error
}

// WriteLine records the write.
func (f *Fake) WriteLine(row int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.writes = append(f.writes, Write{Row: row, Text: text})
	return nil
}

// Clear records a clear.
func (f *Fake) Clear() error {
	f.mu.Lock()
	f.clears++
	f.mu.Unlock()
	return nil
}

// Writes returns every write so far.
func (f *Fake) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Row returns the last text written to row.
func (f *Fake) Row(row int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.writes) - 1; i >= 0; i-- {
		if f.writes[i].Row == row {
			return f.writes[i].Text
		}
	}
	return ""
}

// SetWriteError changes the injected error.
func (f *Fake) SetWriteError(err error) {
	f.mu.Lock()
	f.WriteError = err
	f.mu.Unlock()
}
