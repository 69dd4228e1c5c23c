package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diff = `diff --git a/contracts/vault.csol b/contracts/vault.csol
index 1111111..2222222 100644
--- a/contracts/vault.csol
+++ b/contracts/vault.csol
@@ -3,0 +4,2 @@ struct Vault;
+    require(i < 10);
+    return items[i];
@@ -9 +11 @@ uint256 first(uint256 items[]) {
-    return items[1];
+    return items[0];
diff --git a/lib/math.csol b/lib/math.csol
index 3333333..4444444 100644
--- a/lib/math.csol
+++ b/lib/math.csol
@@ -5,2 +4,0 @@ uint256 sum(uint256 xs[]) {
-        total = 0;
-        break;
`

func TestParseDiff(t *testing.T) {
	changes, err := parseDiff([]byte(diff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "contracts/vault.csol", changes[0].Path)
	assert.Equal(t, []int{4, 5, 11}, changes[0].ChangedLines)
	assert.True(t, changes[0].Contains(11))
	assert.False(t, changes[0].Contains(9))

	assert.Equal(t, "lib/math.csol", changes[1].Path)
	assert.Empty(t, changes[1].ChangedLines, "deletions add no lines")
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestIndex(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	changes, err := parseDiff([]byte(diff))
	require.NoError(t, err)
	for i := range changes {
		changes[i].Path = filepath.Join(dir, filepath.FromSlash(changes[i].Path))
	}
	ix := NewIndex(changes)

	vault := filepath.Join(dir, "contracts", "vault.csol")
	assert.True(t, ix.Has(vault))
	assert.True(t, ix.Has(filepath.Join(dir, "lib", "math.csol")))
	assert.False(t, ix.Has(filepath.Join(dir, "lib", "other.csol")))

	assert.True(t, ix.Changed(vault, 5))
	assert.True(t, ix.Changed(vault, 11))
	assert.False(t, ix.Changed(vault, 9))
	assert.False(t, ix.Changed(filepath.Join(dir, "lib", "math.csol"), 4), "deleted lines are not changed")

	t.Run("Relative paths resolve against the working directory", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		t.Cleanup(func() { _ = os.Chdir(wd) })
		require.NoError(t, os.Chdir(dir))

		assert.True(t, ix.Changed(filepath.Join("contracts", "vault.csol"), 4))
		assert.False(t, ix.Has("vault.csol"))
	})
}
