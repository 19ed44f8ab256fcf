package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCatalogList(t *testing.T, args ...string) string {
	t.Helper()
	configPath := "does-not-exist.yaml"
	cmd := NewCatalogCmd(&configPath)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"list"}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func TestCatalogListTotals(t *testing.T) {
	out := runCatalogList(t)
	require.Contains(t, out, "dreams")
	require.Equal(t, "186", lastLine(out))

	out = runCatalogList(t, "--category", "dreams", "--category", "legacy")
	require.Equal(t, "14", lastLine(out))
}
