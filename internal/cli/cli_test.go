package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entrypoint"
)

func testDatabase(t *testing.T) string {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("AUTH_BCRYPT_COST", "4")
	return filepath.Join(t.TempDir(), "cli.db")
}

func openCatalog(t *testing.T, path string) *entrypoint.Catalog {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Database.Path = path
	cat, err := entrypoint.OpenCatalog(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })
	return cat
}

func TestCreateUserCommand_ParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"complete", []string{"-username", "curator", "-password", "curator-secret"}, false},
		{"admin flag", []string{"-username", "curator", "-password", "curator-secret", "-admin"}, false},
		{"missing password", []string{"-username", "curator"}, true},
		{"missing username", []string{"-password", "curator-secret"}, true},
		{"unknown flag", []string{"-nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCreateUserCommand().ParseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateUserCommand_Run(t *testing.T) {
	path := testDatabase(t)

	cmd := NewCreateUserCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-username", "curator", "-password", "curator-secret", "-admin", "-db", path}))
	require.NoError(t, cmd.Run())

	cat := openCatalog(t, path)
	user, err := cat.Auth.Authenticate("curator", "curator-secret")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	dup := NewCreateUserCommand()
	require.NoError(t, dup.ParseFlags([]string{"-username", "curator", "-password", "another-secret", "-db", path}))
	assert.Error(t, dup.Run())
}

func TestImportGenresCommand_Run(t *testing.T) {
	path := testDatabase(t)
	taxonomy := filepath.Join(t.TempDir(), "genres.yaml")
	require.NoError(t, os.WriteFile(taxonomy, []byte(`
genres:
  - name: Fiction
    children:
      - name: Fantasy
        keywords: [magic, dragons]
  - name: Nonfiction
`), 0o600))

	cmd := NewImportGenresCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", taxonomy, "-db", path}))
	require.NoError(t, cmd.Run())

	cat := openCatalog(t, path)
	fantasy, err := cat.Genres.GetGenre("Fantasy")
	require.NoError(t, err)
	require.NotNil(t, fantasy.ParentName)
	assert.Equal(t, "Fiction", *fantasy.ParentName)
}

func TestImportGenresCommand_Errors(t *testing.T) {
	assert.Error(t, NewImportGenresCommand().ParseFlags(nil))

	cmd := NewImportGenresCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", filepath.Join(t.TempDir(), "missing.yaml"), "-db", testDatabase(t)}))
	assert.Error(t, cmd.Run())
}

func TestVerifySeriesCommand_Run(t *testing.T) {
	path := testDatabase(t)

	cat := openCatalog(t, path)
	author, err := cat.Authors.AddAuthor("Terry", "Pratchett", "")
	require.NoError(t, err)
	_, err = cat.Series.AddSeries("Discworld", []uint{author.ID})
	require.NoError(t, err)

	cmd := NewVerifySeriesCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", path}))
	assert.NoError(t, cmd.Run())
}
