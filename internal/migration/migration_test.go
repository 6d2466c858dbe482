package migration

import (
	"io/fs"
	"testing"

	dbpkg "github.com/smallbiznis/medbill/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	ups, downs := 0, 0
	for _, name := range files {
		switch {
		case len(name) > 7 && name[len(name)-7:] == ".up.sql":
			ups++
		case len(name) > 9 && name[len(name)-9:] == ".down.sql":
			downs++
		}
	}
	assert.Equal(t, ups, downs)
}

func TestAutoMigrate(t *testing.T) {
	conn, err := dbpkg.NewTest()
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(conn))
	for _, table := range []string{"materials", "hospital_materials", "inquiries", "surgery_templates"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}
