package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	transcriptMu  sync.Mutex
	transcriptLog *log.Logger
)

// SetTranscriptWriter directs prompt/answer exchanges to w. nil disables the
// transcript.
func SetTranscriptWriter(w io.Writer) {
	transcriptMu.Lock()
	defer transcriptMu.Unlock()
	if w == nil {
		transcriptLog = nil
		return
	}
	transcriptLog = log.New(w, "", log.LstdFlags)
}

type transcriptSection struct {
	Title string
	Body  string
}

func logTranscript(pass, key string, sections []transcriptSection) {
	transcriptMu.Lock()
	out := transcriptLog
	transcriptMu.Unlock()
	if out == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[FIELD]")
	for _, tag := range []string{pass, key} {
		if tag == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(tag)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	out.Print(b.String())
}

// LogExchange records one prompt, the raw answer and the verdict (empty when
// accepted).
func LogExchange(pass, key, prompt, answer, verdict string) {
	sections := []transcriptSection{
		{Title: "PROMPT", Body: prompt},
		{Title: "ANSWER", Body: answer},
	}
	if verdict == "" {
		sections = append(sections, transcriptSection{Title: "ACCEPTED", Body: ""})
	} else {
		sections = append(sections, transcriptSection{Title: "REJECTED", Body: verdict})
	}
	logTranscript(pass, key, sections)
}
