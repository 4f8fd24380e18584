package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalObjectStore(t *testing.T) {
	store, err := NewLocalObjectStore(t.TempDir(), "http://localhost:8001/audio")
	require.NoError(t, err)

	ctx := context.Background()

	err = store.PutObject(ctx, "user1_upload_123_test.wav", strings.NewReader("audio-bytes"))
	require.NoError(t, err)

	obj, err := store.GetObject(ctx, "user1_upload_123_test.wav")
	require.NoError(t, err)
	defer obj.Close()

	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	assert.Equal(t, "http://localhost:8001/audio/user1_upload_123_test.wav", store.PublicURL("user1_upload_123_test.wav"))

	err = store.DeleteObject(ctx, "user1_upload_123_test.wav")
	require.NoError(t, err)

	_, err = store.GetObject(ctx, "user1_upload_123_test.wav")
	assert.Error(t, err)

	// Deleting a missing object is not an error.
	assert.NoError(t, store.DeleteObject(ctx, "user1_upload_123_test.wav"))
}
