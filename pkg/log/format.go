package log

import (
	"bytes"
	"fmt"

	"github.com/mgutz/ansi"
	"github.com/sirupsen/logrus"
)

// FieldKeyPrefix is rendered as a bracketed prefix in front of the message
// instead of as a trailing key=value pair.
const FieldKeyPrefix = "prefix"

const timestampFormat = "15:04:05.000"

var levelColorFuncs = map[Level]func(string) string{
	ErrorLevel: ansi.ColorFunc("red"),
	WarnLevel:  ansi.ColorFunc("yellow"),
	InfoLevel:  ansi.ColorFunc("green"),
	DebugLevel: ansi.ColorFunc("cyan"),
	TraceLevel: ansi.ColorFunc("white+d"),
}

var prefixColorFunc = ansi.ColorFunc("cyan+b")

// PrettyFormatter renders entries as `15:04:05.000 lvl [prefix] msg key=value`.
type PrettyFormatter struct {
	// DisableColors strips all ANSI color codes from the output.
	DisableColors bool
	// DisableTimestamp omits the leading timestamp.
	DisableTimestamp bool
}

// NewPrettyFormatter returns a PrettyFormatter with colors and timestamps on.
func NewPrettyFormatter() *PrettyFormatter {
	return &PrettyFormatter{}
}

// Format implements logrus.Formatter.
func (formatter *PrettyFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	if !formatter.DisableTimestamp {
		buf.WriteString(entry.Time.Format(timestampFormat))
		buf.WriteByte(' ')
	}

	level := FromLogrusLevel(entry.Level)
	buf.WriteString(formatter.colorize(level, level.ShortName()))
	buf.WriteByte(' ')

	fields := Fields(entry.Data)

	if prefix, ok := fields[FieldKeyPrefix].(string); ok && prefix != "" {
		name := "[" + prefix + "] "
		if !formatter.DisableColors {
			name = prefixColorFunc(name)
		}

		buf.WriteString(name)
	}

	buf.WriteString(entry.Message)

	for _, key := range fields.Keys(FieldKeyPrefix) {
		fmt.Fprintf(&buf, " %s=%v", key, fields[key])
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func (formatter *PrettyFormatter) colorize(level Level, str string) string {
	if formatter.DisableColors {
		return str
	}

	if colorFunc, ok := levelColorFuncs[level]; ok {
		return colorFunc(str)
	}

	return str
}
