package export

import (
	"bufio"
	"io"
	"strings"
)

// WriteCSV writes a bare header line and one LF-terminated line per row.
// Every value is double-quoted, with embedded quotes doubled.
func WriteCSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	writeLine(bw, header, false)
	for _, r := range rows {
		writeLine(bw, r.values(), true)
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, fields []string, quote bool) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		if !quote {
			w.WriteString(f)
			continue
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
