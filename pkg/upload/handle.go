package upload

import (
	"regexp"
	"strings"

	"github.com/marmos91/telebox/pkg/telegram"
)

// DefaultFileName replaces an empty display name.
const DefaultFileName = "upload.bin"

var extensionPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// SelectMethod maps a declared content type to its Bot API send method.
func SelectMethod(mime string) telegram.Method {
	return telegram.MethodForMimeType(mime)
}

// Extension returns the lower-cased segment after the last '.' of name when
// it is 1 to 10 ASCII letters or digits, and "" otherwise.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	ext := strings.ToLower(name[i+1:])
	if !extensionPattern.MatchString(ext) {
		return ""
	}
	return ext
}

// BuildHandle joins a file identifier and an optional extension.
func BuildHandle(fileID, ext string) string {
	if ext == "" {
		return fileID
	}
	return fileID + "." + ext
}

// Src returns the retrieval path of handle.
func Src(handle string) string {
	return "/file/" + handle
}
