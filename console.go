package oglog

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console rendering for development:
//
//	2026-08-26 10:30:00 | INFO     | [req:abc123 | user_id:42] user logged in
//
// The bracket prefix carries the request id and every non-core field; the
// machine-oriented ECS fields (service identity, client ip, call-site
// origin) stay out of the way.

var consoleCoreFields = map[string]struct{}{
	fieldService:        {},
	fieldServiceEnv:     {},
	fieldClientIP:       {},
	fieldOriginFile:     {},
	fieldOriginLine:     {},
	fieldOriginFunction: {},
}

func newConsoleWriter(out io.Writer, noColor bool) io.Writer {
	w := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: consoleTimeFormat,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
	}

	w.FormatTimestamp = func(i interface{}) string {
		s, ok := i.(string)
		if !ok {
			return fmt.Sprintf("%v |", i)
		}
		t, err := time.Parse(ecsTimeFormat, s)
		if err != nil {
			return s + " |"
		}
		return t.Local().Format(consoleTimeFormat) + " |"
	}

	w.FormatLevel = func(i interface{}) string {
		label := fmt.Sprintf("%-8s", i)
		if !noColor {
			label = colorizeLevel(label)
		}
		return label + " |"
	}

	// Fold every non-core field into the bracket prefix and drop it from
	// the trailing k=v rendering.
	w.FormatPrepare = func(evt map[string]interface{}) error {
		msg, _ := evt[zerolog.MessageFieldName].(string)

		var parts []string
		if id, ok := evt[fieldRequestID]; ok {
			parts = append(parts, fmt.Sprintf("req:%v", id))
			delete(evt, fieldRequestID)
		}

		var keys []string
		for k := range evt {
			switch k {
			case zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName:
				continue
			}
			if _, core := consoleCoreFields[k]; core {
				delete(evt, k)
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s:%v", k, evt[k]))
			delete(evt, k)
		}

		if len(parts) > 0 {
			evt[zerolog.MessageFieldName] = "[" + strings.Join(parts, " | ") + "] " + msg
		}
		return nil
	}

	return w
}

func colorizeLevel(label string) string {
	var code int
	switch strings.TrimSpace(label) {
	case "DEBUG":
		code = 36 // cyan
	case "INFO":
		code = 32 // green
	case "WARNING":
		code = 33 // yellow
	case "ERROR":
		code = 31 // red
	default:
		return label
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, label)
}
