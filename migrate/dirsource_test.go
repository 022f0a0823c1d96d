package migrate

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/stepwise/db/types"
)

func writeScripts(t *testing.T, fs vfs.FileSystem, dir string, scripts map[string]string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	for name, body := range scripts {
		require.NoError(t, vfs.WriteFile(fs, dir+"/"+name, []byte(body), 0o644))
	}
}

func TestDirSourceTransitions(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	writeScripts(t, fs, "/transitions", map[string]string{
		"1.1.0_to_1.1.1.sql": "CREATE TABLE a (id int);",
		"1.0.0_to_1.1.0.sql": "CREATE TABLE b (id int);",
		"notes.txt":          "ignored",
	})

	src := NewDirSource(fs, "/transitions")
	assert.Equal(t, "/transitions", src.Name())

	transitions, err := src.Transitions()
	require.NoError(t, err)
	require.Len(t, transitions, 2)

	// Lexical filename order, not creation order.
	assert.Equal(t, "1.0.0 -> 1.1.0", transitions[0].String())
	assert.Equal(t, "1.1.0 -> 1.1.1", transitions[1].String())
	assert.Equal(t, "/transitions/1.0.0_to_1.1.0.sql", transitions[0].Source)
	require.NotNil(t, transitions[0].Apply)
}

func TestDirSourceScriptExecution(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	writeScripts(t, fs, "/transitions", map[string]string{
		"1.0.0_to_1.1.0.sql": "CREATE TABLE from_script (id int);",
	})

	transitions, err := NewDirSource(fs, "/transitions").Transitions()
	require.NoError(t, err)
	require.Len(t, transitions, 1)

	d := newTestDB(t)
	require.NoError(t, transitions[0].Apply(d.NewContext(), d, nil))

	_, err = d.ExecContext(d.NewContext(), "SELECT * FROM from_script")
	assert.NoError(t, err)
}

// recordingQuerier captures the statements it receives, separating the raw
// path from the placeholder-binding one.
type recordingQuerier struct {
	raw   []string
	bound []string
}

var _ types.Querier = (*recordingQuerier)(nil)

func (r *recordingQuerier) NewContext() context.Context { return context.Background() }
func (r *recordingQuerier) TimeNow() time.Time          { return time.Time{} }

func (r *recordingQuerier) ExecContext(_ context.Context, sql string, _ ...any) (sql.Result, error) {
	r.bound = append(r.bound, sql)
	return nil, nil
}

func (r *recordingQuerier) ExecRawContext(_ context.Context, sql string) (sql.Result, error) {
	r.raw = append(r.raw, sql)
	return nil, nil
}

func (r *recordingQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}

func (r *recordingQuerier) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

// Scripts bind no arguments, so they must reach the database verbatim: a bare
// ? in a script is database syntax (e.g. the PostgreSQL jsonb operator), not a
// placeholder, and must never be rewritten.
func TestDirSourceScriptRunsVerbatim(t *testing.T) {
	t.Parallel()

	const script = `CREATE INDEX setting_keys ON setting ((setting_value ? 'enabled'));`

	fs := memoryfs.New()
	writeScripts(t, fs, "/transitions", map[string]string{
		"1.2.0_to_1.2.1.sql": script,
	})

	transitions, err := NewDirSource(fs, "/transitions").Transitions()
	require.NoError(t, err)
	require.Len(t, transitions, 1)

	q := &recordingQuerier{}
	require.NoError(t, transitions[0].Apply(context.Background(), q, nil))
	assert.Equal(t, []string{script}, q.raw)
	assert.Empty(t, q.bound)
}

func TestDirSourceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		scriptName string
		expMsg     string
	}{
		{
			name:       "no_separator",
			scriptName: "1.0.0-1.1.0.sql",
			expMsg:     "invalid transition script name",
		},
		{
			name:       "bad_from_version",
			scriptName: "1.0_to_1.1.0.sql",
			expMsg:     "invalid from version",
		},
		{
			name:       "bad_to_version",
			scriptName: "1.0.0_to_v1.1.0.sql",
			expMsg:     "invalid to version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			writeScripts(t, fs, "/transitions", map[string]string{
				tt.scriptName: "SELECT 1;",
			})

			_, err := NewDirSource(fs, "/transitions").Transitions()
			assert.ErrorContains(t, err, tt.expMsg)
		})
	}

	t.Run("missing_directory", func(t *testing.T) {
		t.Parallel()

		_, err := NewDirSource(memoryfs.New(), "/nope").Transitions()
		assert.ErrorContains(t, err, "failed reading transitions directory")
	})
}
