package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrderedAndSkipsBlank(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_b.sql":   {Data: []byte("CREATE TABLE b ();\n")},
		"pg/001_a.sql":   {Data: []byte("  CREATE TABLE a ();  ")},
		"pg/003_nop.sql": {Data: []byte("\n\n")},
		"pg/README.md":   {Data: []byte("not sql")},
	}

	files, err := load(fsys, "pg")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_a.sql", files[0].name)
	assert.Equal(t, "CREATE TABLE a ();", files[0].sql)
	assert.Equal(t, "002_b.sql", files[1].name)
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_ledger.sql", "002_positions.sql", "003_candidate_snapshots.sql"}, names(pg))

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Equal(t, []string{"001_verdict_log.sql"}, names(ch))
	assert.NotContains(t, ch[0].sql, ";", "clickhouse migrations hold a single statement")
}

func names(files []migration) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.name)
	}
	return out
}
