package classifier

import (
	"mime"
	"strings"
)

// knownMimeTypes pins the types of common asset extensions so inference does
// not depend on the host's mime.types files.
var knownMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/vnd.microsoft.icon",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".avif": "image/avif",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mkv":  "video/x-matroska",
	".3gp":  "video/3gpp",
	".ogv":  "video/ogg",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".ts":   "video/mp2t",
	".m3u8": "application/vnd.apple.mpegurl",
	".mpd":  "application/dash+xml",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".wma":  "audio/x-ms-wma",
	".m4a":  "audio/mp4",
	".opus": "audio/opus",
	".aiff": "audio/aiff",
	".au":   "audio/basic",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".txt":  "text/plain",
	".rtf":  "application/rtf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
	".ppt":  "application/vnd.ms-powerpoint",
	".odt":  "application/vnd.oasis.opendocument.text",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".odp":  "application/vnd.oasis.opendocument.presentation",
}

// MimeTypeByExtension infers a MIME type (without parameters) from a lowercase
// extension. It returns "" when nothing is known.
func MimeTypeByExtension(ext string) string {
	if ext == "" {
		return ""
	}
	if known, ok := knownMimeTypes[ext]; ok {
		return known
	}
	inferred := mime.TypeByExtension(ext)
	if i := strings.IndexByte(inferred, ';'); i >= 0 {
		inferred = inferred[:i]
	}
	return strings.TrimSpace(strings.ToLower(inferred))
}
