package imagestore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	failOn string
	names  []string
}

func (s *stubUploader) Upload(_ context.Context, f File) (string, error) {
	if f.Name == s.failOn {
		return "", errors.New("boom")
	}
	s.names = append(s.names, f.Name)
	return "https://cdn.example.com/" + f.Name, nil
}

func TestUploadAll(t *testing.T) {
	u := &stubUploader{}
	urls, err := UploadAll(context.Background(), u, []File{
		{Name: "a.png", Body: strings.NewReader("a")},
		{Name: "b.png", Body: strings.NewReader("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"}, urls)
}

func TestUploadAll_StopsOnFailure(t *testing.T) {
	u := &stubUploader{failOn: "a.png"}
	_, err := UploadAll(context.Background(), u, []File{
		{Name: "a.png", Body: strings.NewReader("a")},
		{Name: "b.png", Body: strings.NewReader("b")},
	})
	assert.Error(t, err)
	assert.Empty(t, u.names)
}
