package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const oldSource = `package main

func main() {
	for i := 0; i < 3; i++ {
		println(i)
		println(i * 2)
	}
}
`

const newSource = `package main

func main() {
	for i := 0; i < 3; i++ {
		if i > 0 {
			println(i)
			println(i * 2)
		}
	}
}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// run executes cmd with an empty config file so the result does not depend
// on the machine's configuration.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	global = globalOptions{configPath: writeFile(t, t.TempDir(), "config.yaml", "min_scope_lines: 4\n")}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanCmd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.go", oldSource)
	out, err := run(t, newScanCmd(), path)
	require.NoError(t, err)
	require.Equal(t, path+":8:2\tfunc main()\t6\n"+
		path+":7:3\tfor i := 0; i < 3; i++\t4\n", out)
}

func TestScanCmd_UnknownFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.go", oldSource)
	_, err := run(t, newScanCmd(), "--format", "xml", path)
	require.ErrorContains(t, err, "unknown format")
}

func TestTreeCmd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.go", oldSource)
	out, err := run(t, newTreeCmd(), path)
	require.NoError(t, err)
	require.Equal(t, "{…} 3:13-8:1 smart\n  {…} 4:25-7:2 smart\n", out)
}

func TestReplayCmd(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "old.go", oldSource)
	newPath := writeFile(t, dir, "new.go", newSource)

	for _, args := range [][]string{{oldPath, newPath}, {"--stepwise", oldPath, newPath}} {
		out, err := run(t, newReplayCmd(), args...)
		require.NoError(t, err, out)
		require.Contains(t, out, "scopes\t3\n")
		require.Contains(t, out, "ok\n")
	}
}

func TestGrammarsCmd(t *testing.T) {
	out, err := run(t, newGrammarsCmd(), "go", "ruby")
	require.NoError(t, err)
	require.Contains(t, out, "NAME")
	require.Contains(t, out, "ruby")

	out, err = run(t, newGrammarsCmd(), "--dump", "sql")
	require.NoError(t, err)
	require.Contains(t, out, "name: sql")

	_, err = run(t, newGrammarsCmd(), "cobol")
	require.ErrorContains(t, err, "unknown grammar")
}
