package entity

import "time"

const (
	NoticeInfo    = "info"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

type Notice struct {
	Level string
	Text  string
}

// Session holds the state of one browser: the current file set and the
// directory it lives in. The file set is always replaced, never merged.
type Session struct {
	ID        string
	Dir       string   // Work directory owning Files, empty when no file set
	Root      string   // Extraction root inside Dir, Files are listed relative to it
	Source    string   // URL the file set was fetched from
	Files     []string // Ordered file set
	Notice    *Notice
	CreatedAt time.Time
}

func (s *Session) HasFiles() bool {
	return s != nil && len(s.Files) > 0
}
