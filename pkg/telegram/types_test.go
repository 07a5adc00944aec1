package telegram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodForMimeType(t *testing.T) {
	tests := []struct {
		mime string
		want Method
	}{
		{"image/png", SendPhoto},
		{"image/jpeg", SendPhoto},
		{"video/mp4", SendVideo},
		{"audio/mpeg", SendAudio},
		{"application/pdf", SendDocument},
		{"application/zip", SendDocument},
		{"text/plain", SendDocument},
		{"", SendDocument},
		{"imagex/png", SendDocument},
		{"IMAGE/PNG", SendDocument},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, MethodForMimeType(tt.mime))
		})
	}
}

func TestMethodField(t *testing.T) {
	assert.Equal(t, "photo", SendPhoto.Field())
	assert.Equal(t, "video", SendVideo.Field())
	assert.Equal(t, "audio", SendAudio.Field())
	assert.Equal(t, "document", SendDocument.Field())
}

func decode(t *testing.T, raw string) *Response {
	t.Helper()
	var r Response
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return &r
}

func TestExtractFileID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "largest photo",
			raw:  `{"ok":true,"result":{"photo":[{"file_id":"s","file_size":100},{"file_id":"l","file_size":900},{"file_id":"m","file_size":400}]}}`,
			want: "l",
		},
		{
			name: "photo tie keeps later",
			raw:  `{"ok":true,"result":{"photo":[{"file_id":"a","file_size":500},{"file_id":"b","file_size":500}]}}`,
			want: "b",
		},
		{
			name: "photo beats document",
			raw:  `{"ok":true,"result":{"photo":[{"file_id":"p","file_size":1}],"document":{"file_id":"d"}}}`,
			want: "p",
		},
		{
			name: "document only",
			raw:  `{"ok":true,"result":{"document":{"file_id":"d"}}}`,
			want: "d",
		},
		{
			name: "document beats video",
			raw:  `{"ok":true,"result":{"document":{"file_id":"d"},"video":{"file_id":"v"}}}`,
			want: "d",
		},
		{
			name: "video beats audio",
			raw:  `{"ok":true,"result":{"video":{"file_id":"v"},"audio":{"file_id":"a"}}}`,
			want: "v",
		},
		{
			name: "audio only",
			raw:  `{"ok":true,"result":{"audio":{"file_id":"a"}}}`,
			want: "a",
		},
		{
			name: "empty document id falls through",
			raw:  `{"ok":true,"result":{"document":{"file_id":""},"audio":{"file_id":"a"}}}`,
			want: "a",
		},
		{name: "not ok", raw: `{"ok":false,"result":{"document":{"file_id":"d"}}}`, wantErr: true},
		{name: "no result", raw: `{"ok":true}`, wantErr: true},
		{name: "no file fields", raw: `{"ok":true,"result":{"message_id":7}}`, wantErr: true},
		{name: "empty photo list", raw: `{"ok":true,"result":{"photo":[]}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFileID(decode(t, tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoFileID)
				assert.Equal(t, "Failed to get file ID from Telegram response", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExtractFileID(nil)
	assert.ErrorIs(t, err, ErrNoFileID)
}
