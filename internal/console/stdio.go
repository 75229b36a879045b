package console

// LineBufferSize is the size of each task's output line buffer.
const LineBufferSize = 128

// LineWriter is a per-task stdout buffer: Putchar appends and flushes on
// newline or buffer-full, the Go counterpart of putchar/flush. Each task
// in the kernel owns one.
type LineWriter struct {
	out        *UART
	buf        [LineBufferSize]byte
	idx        int
	bufEnabled bool
	savedState bool
}

// NewLineWriter returns a LineWriter with line buffering enabled,
// writing flushed lines to out.
func NewLineWriter(out *UART) *LineWriter {
	return &LineWriter{out: out, bufEnabled: true}
}

// Flush writes any buffered bytes to the UART and resets the buffer.
func (w *LineWriter) Flush() {
	if w.idx > 0 {
		w.out.Write(w.buf[:w.idx])
		w.idx = 0
	}
}

// Putchar appends c to the line buffer, flushing immediately after a
// newline or as soon as the buffer is full. With buffering disabled it
// writes straight through.
func (w *LineWriter) Putchar(c byte) {
	if !w.bufEnabled {
		w.out.Write([]byte{c})
		return
	}
	if w.idx >= LineBufferSize {
		w.Flush()
	}
	w.buf[w.idx] = c
	w.idx++
	if c == '\n' || w.idx >= LineBufferSize {
		w.Flush()
	}
}

// Puts writes s followed by CRLF.
func (w *LineWriter) Puts(s string) {
	for i := 0; i < len(s); i++ {
		w.Putchar(s[i])
	}
	w.Putchar('\r')
	w.Putchar('\n')
}

// BufDisable turns off line buffering so every Putchar writes through
// immediately, used around interactive input loops like gets. It is not
// nestable: pair each call with BufRestore.
func (w *LineWriter) BufDisable() {
	w.savedState = w.bufEnabled
	w.Flush()
	w.bufEnabled = false
}

// BufEnable turns line buffering back on unconditionally.
func (w *LineWriter) BufEnable() {
	w.bufEnabled = true
}

// BufRestore returns buffering to whatever state BufDisable saved.
func (w *LineWriter) BufRestore() {
	w.bufEnabled = w.savedState
}
