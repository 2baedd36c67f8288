package entity

// File represents a single browsable file of a session's file set.
type File struct {
	ID         string // sha1 of SourcePath
	Name       string // Base name
	RelPath    string // Path relative to the session's extraction root
	SourcePath string // Internal path to the file on disk
	Size       int64
	SizeHuman  string
	Kind       Kind
}
