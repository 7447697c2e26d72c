package credfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLoad_FileNotFound(t *testing.T) {
	tok, meta, err := Load("/nonexistent/path/credentials.json")
	assert.Nil(t, tok)
	assert.Nil(t, meta)
	assert.NoError(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	expiry := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	original := &oauth2.Token{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}
	meta := map[string]string{
		MetaUsername: "alice@example.com",
		MetaUserID:   "user-7",
		MetaDeviceID: "0123456789abcdef0123456789abcdef",
	}

	require.NoError(t, Save(path, original, meta))

	tok, loadedMeta, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "access-123", tok.AccessToken)
	assert.Equal(t, "refresh-456", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))
	assert.Equal(t, meta, loadedMeta)
}

func TestSave_Permissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "credentials.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(DirPerms), dirInfo.Mode().Perm())
}

func TestSave_NilToken(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "credentials.json"), nil, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to save nil token")
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "a"}, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "credentials.json", entries[0].Name())
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := Load(path)
	assert.ErrorContains(t, err, "decoding")
}

func TestLoad_MissingToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"meta": {"username": "alice"}}`), 0o600))

	_, _, err := Load(path)
	assert.ErrorContains(t, err, "missing token field")
}

func TestReadMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "a"}, map[string]string{MetaUsername: "alice"}))

	meta, err := ReadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", meta[MetaUsername])
}

func TestReadMeta_FileNotFound(t *testing.T) {
	meta, err := ReadMeta("/nonexistent/path/credentials.json")
	assert.Nil(t, meta)
	assert.NoError(t, err)
}

func TestLoadAndMergeMeta_MergesKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r"},
		map[string]string{MetaUsername: "old@example.com", MetaDeviceID: "dev-1"}))

	require.NoError(t, LoadAndMergeMeta(path, map[string]string{
		MetaUsername: "new@example.com",
		MetaUserID:   "user-7",
	}))

	meta, err := ReadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", meta[MetaUsername])
	assert.Equal(t, "dev-1", meta[MetaDeviceID])
	assert.Equal(t, "user-7", meta[MetaUserID])
}

func TestLoadAndMergeMeta_FileNotFound(t *testing.T) {
	err := LoadAndMergeMeta("/nonexistent/path/credentials.json", map[string]string{"k": "v"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no credential file")
}
