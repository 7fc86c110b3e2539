package display

import "github.com/golang/glog"

// Log is a display that writes rows to the log, for running without an LCD.
type Log struct {
	Name string
}

// WriteLine implements Display.
func (l Log) WriteLine(row int, text string) error {
	glog.Infof("%s: row %d: %q", l.name(), row, text)
	return nil
}

// Clear implements Display.
func (l Log) Clear() error {
	glog.V(1).Infof("%s: clear", l.name())
	return nil
}

func (l Log) name() string {
	if l.Name == "" {
		return "display"
	}
	return l.Name
}
