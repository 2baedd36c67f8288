package entity

const (
	CategoryUnsupported Category = iota
	CategoryArchive
	CategoryImage
	CategoryVideo
	CategoryText
	CategoryPDF
)

type Category int

func (c Category) String() string {
	return [...]string{"Unsupported", "Archive", "Image", "Video", "Text", "PDF"}[c]
}

const (
	FormatNone Format = iota
	FormatZip
	FormatRar
	FormatSevenZip
	FormatTarGz
	FormatTarXz
	FormatTarZst
	FormatTar
)

type Format int

func (f Format) String() string {
	return [...]string{"None", "Zip", "Rar", "7z", "TarGz", "TarXz", "TarZst", "Tar"}[f]
}

// Kind is the classification of a file name. It is produced once by the
// classifier and consumed by both the extractor and the renderer.
type Kind struct {
	Category Category
	Format   Format // Set for archives only
	Language string // Syntax highlighting hint for text files
	MIMEType string
}

func (k Kind) IsArchive() bool {
	return k.Category == CategoryArchive
}
