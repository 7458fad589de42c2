package browser

import (
	"path"
	"strings"
)

// DefaultContentType is used for unknown extensions.
const DefaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".txt":     "text/plain",
	".log":     "text/plain",
	".md":      "text/markdown",
	".csv":     "text/csv",
	".tsv":     "text/tab-separated-values",
	".html":    "text/html",
	".htm":     "text/html",
	".css":     "text/css",
	".xml":     "application/xml",
	".js":      "application/javascript",
	".mjs":     "application/javascript",
	".json":    "application/json",
	".ndjson":  "application/x-ndjson",
	".jsonl":   "application/x-ndjson",
	".yaml":    "application/x-yaml",
	".yml":     "application/x-yaml",
	".toml":    "application/toml",
	".parquet": "application/vnd.apache.parquet",
	".avro":    "application/avro",
	".orc":     "application/octet-stream",
	".pdf":     "application/pdf",
	".zip":     "application/zip",
	".gz":      "application/gzip",
	".tgz":     "application/gzip",
	".tar":     "application/x-tar",
	".bz2":     "application/x-bzip2",
	".zst":     "application/zstd",
	".png":     "image/png",
	".jpg":     "image/jpeg",
	".jpeg":    "image/jpeg",
	".gif":     "image/gif",
	".webp":    "image/webp",
	".svg":     "image/svg+xml",
	".ico":     "image/x-icon",
	".bmp":     "image/bmp",
	".tif":     "image/tiff",
	".tiff":    "image/tiff",
	".mp3":     "audio/mpeg",
	".wav":     "audio/wav",
	".mp4":     "video/mp4",
	".webm":    "video/webm",
	".mov":     "video/quicktime",
	".wasm":    "application/wasm",
}

// ContentType infers a MIME type from the lowercase extension of key.
func ContentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return DefaultContentType
}
