// Package classifier maps file names to an entity.Kind using a static
// extension table. Only the name is inspected, never the content.
package classifier

import (
	"path/filepath"
	"strings"

	"github.com/jgivc/fileviewer/internal/entity"
)

const (
	MIMETypeUnknown = "application/octet-stream"
	LanguagePlain   = "plaintext"
)

type compoundSuffix struct {
	suffix string
	format entity.Format
}

var (
	// Checked before single extensions, longest first.
	compoundSuffixes = []compoundSuffix{
		{".tar.zst", entity.FormatTarZst},
		{".tar.gz", entity.FormatTarGz},
		{".tar.xz", entity.FormatTarXz},
	}

	archives = map[string]entity.Format{
		".zip": entity.FormatZip,
		".rar": entity.FormatRar,
		".7z":  entity.FormatSevenZip,
		".tgz": entity.FormatTarGz,
		".txz": entity.FormatTarXz,
		".tar": entity.FormatTar,
	}

	archiveMIMETypes = map[entity.Format]string{
		entity.FormatZip:      "application/zip",
		entity.FormatRar:      "application/vnd.rar",
		entity.FormatSevenZip: "application/x-7z-compressed",
		entity.FormatTarGz:    "application/gzip",
		entity.FormatTarXz:    "application/x-xz",
		entity.FormatTarZst:   "application/zstd",
		entity.FormatTar:      "application/x-tar",
	}

	images = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".bmp":  "image/bmp",
		".svg":  "image/svg+xml",
	}

	videos = map[string]string{
		".mp4":  "video/mp4",
		".avi":  "video/x-msvideo",
		".mov":  "video/quicktime",
		".webm": "video/webm",
		".mkv":  "video/x-matroska",
	}

	// extension -> highlighting language
	texts = map[string]string{
		".txt":  LanguagePlain,
		".log":  LanguagePlain,
		".html": "html",
		".htm":  "html",
		".js":   "javascript",
		".ts":   "typescript",
		".css":  "css",
		".json": "json",
		".py":   "python",
		".md":   "markdown",
		".go":   "go",
		".xml":  "xml",
		".yaml": "yaml",
		".yml":  "yaml",
		".toml": "toml",
		".ini":  "ini",
		".csv":  "csv",
		".sh":   "bash",
		".java": "java",
		".c":    "c",
		".h":    "c",
		".cpp":  "cpp",
		".rs":   "rust",
		".rb":   "ruby",
		".sql":  "sql",
	}
)

// Classify returns the kind of the file with the given name.
func Classify(name string) entity.Kind {
	lower := strings.ToLower(filepath.Base(name))

	for _, cs := range compoundSuffixes {
		if strings.HasSuffix(lower, cs.suffix) {
			return archiveKind(cs.format)
		}
	}

	ext := filepath.Ext(lower)

	if format, ok := archives[ext]; ok {
		return archiveKind(format)
	}

	if mimeType, ok := images[ext]; ok {
		return entity.Kind{Category: entity.CategoryImage, MIMEType: mimeType}
	}

	if mimeType, ok := videos[ext]; ok {
		return entity.Kind{Category: entity.CategoryVideo, MIMEType: mimeType}
	}

	if lang, ok := texts[ext]; ok {
		return entity.Kind{Category: entity.CategoryText, Language: lang, MIMEType: "text/plain; charset=utf-8"}
	}

	if ext == ".pdf" {
		return entity.Kind{Category: entity.CategoryPDF, MIMEType: "application/pdf"}
	}

	return entity.Kind{Category: entity.CategoryUnsupported, MIMEType: MIMETypeUnknown}
}

// Stem strips the archive suffix (compound suffixes included) from name.
func Stem(name string) string {
	base := filepath.Base(name)
	lower := strings.ToLower(base)

	for _, cs := range compoundSuffixes {
		if strings.HasSuffix(lower, cs.suffix) {
			return base[:len(base)-len(cs.suffix)]
		}
	}

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func archiveKind(format entity.Format) entity.Kind {
	return entity.Kind{
		Category: entity.CategoryArchive,
		Format:   format,
		MIMEType: archiveMIMETypes[format],
	}
}
