package telegram

import (
	"errors"
	"strings"
)

// ErrNoFileID is returned when a send response carries no file identifier.
var ErrNoFileID = errors.New("Failed to get file ID from Telegram response")

// Method is a Bot API send method.
type Method string

const (
	SendPhoto    Method = "sendPhoto"
	SendVideo    Method = "sendVideo"
	SendAudio    Method = "sendAudio"
	SendDocument Method = "sendDocument"
)

// Field returns the multipart field name carrying the file for m.
func (m Method) Field() string {
	switch m {
	case SendPhoto:
		return "photo"
	case SendVideo:
		return "video"
	case SendAudio:
		return "audio"
	default:
		return "document"
	}
}

func (m Method) String() string { return string(m) }

// MethodForMimeType picks the send method for a declared content type.
// Anything that is not image, video or audio goes out as a document.
func MethodForMimeType(mime string) Method {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return SendPhoto
	case strings.HasPrefix(mime, "video/"):
		return SendVideo
	case strings.HasPrefix(mime, "audio/"):
		return SendAudio
	default:
		return SendDocument
	}
}

// Response is the Bot API response envelope of send methods.
type Response struct {
	OK          bool     `json:"ok"`
	Result      *Message `json:"result,omitempty"`
	Description string   `json:"description,omitempty"`
	ErrorCode   int      `json:"error_code,omitempty"`
}

// Message is the subset of a sent message that carries files.
type Message struct {
	MessageID int64       `json:"message_id"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Document  *File       `json:"document,omitempty"`
	Video     *File       `json:"video,omitempty"`
	Audio     *File       `json:"audio,omitempty"`
}

// PhotoSize is one resolution of an uploaded photo.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size"`
}

// File is a document, video or audio attachment.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// ExtractFileID returns the identifier of the stored file. Photos win over
// document, video and audio, in that order. Among photo sizes the largest
// file_size is chosen; on equal sizes the later entry wins.
func ExtractFileID(resp *Response) (string, error) {
	if resp == nil || !resp.OK || resp.Result == nil {
		return "", ErrNoFileID
	}
	msg := resp.Result

	if len(msg.Photo) > 0 {
		largest := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if !(largest.FileSize > p.FileSize) {
				largest = p
			}
		}
		if largest.FileID != "" {
			return largest.FileID, nil
		}
		return "", ErrNoFileID
	}

	for _, f := range []*File{msg.Document, msg.Video, msg.Audio} {
		if f != nil && f.FileID != "" {
			return f.FileID, nil
		}
	}
	return "", ErrNoFileID
}

// fileResponse is the getFile response envelope.
type fileResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Result      *struct {
		FileID   string `json:"file_id"`
		FileSize int64  `json:"file_size"`
		FilePath string `json:"file_path"`
	} `json:"result,omitempty"`
}
