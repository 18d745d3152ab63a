// Package ruleset_test tests rule file loading and hot reload.
package ruleset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/ssml-service/internal/ruleset"
	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customRules = `
variant = "no-deprecated"
root = "speak"
supported = ["speak", "break", "voice"]
deprecated = ["audio"]
`

func writeRuleFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
}

func TestParse(t *testing.T) {
	t.Parallel()

	def, err := ruleset.Parse([]byte(customRules))
	require.NoError(t, err)

	assert.Equal(t, "no-deprecated", def.Variant)
	assert.Equal(t, []string{"speak", "break", "voice"}, def.Supported)

	rules, err := def.Rules()
	require.NoError(t, err)
	assert.Equal(t, ssml.VariantNoDeprecated, rules.Variant)
	assert.Equal(t, ssml.NewTagSet("speak", "break", "voice"), rules.Supported)
	assert.Equal(t, ssml.NewTagSet("audio"), rules.Deprecated)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := ruleset.Parse([]byte(`allowed = ["speak"]`))
	require.Error(t, err)
}

func TestDefinition_Defaults(t *testing.T) {
	t.Parallel()

	rules, err := ruleset.Definition{}.Rules()
	require.NoError(t, err)

	assert.Equal(t, ssml.VariantCanonical, rules.Variant)
	assert.Equal(t, ssml.DefaultRoot, rules.Root)
	assert.Equal(t, ssml.DefaultSupported(), rules.Supported)

	_, err = ruleset.Definition{Variant: "legacy"}.Validator()
	require.ErrorIs(t, err, ssml.ErrUnknownVariant)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.toml")
	writeRuleFile(t, path, customRules)

	validator, err := ruleset.LoadFile(path)
	require.NoError(t, err)

	result := validator.Validate("<voice><break/></voice>")
	assert.True(t, result.Valid)

	result = validator.Validate("<speak><audio/></speak>")
	assert.False(t, result.Valid)
	assert.Equal(t, ssml.KindDeprecatedTags, result.ErrorKind)

	_, err = ruleset.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestStore_Swap(t *testing.T) {
	t.Parallel()

	_, err := ruleset.NewStore(nil)
	require.ErrorIs(t, err, ruleset.ErrNoValidator)

	store, err := ruleset.NewStore(ssml.Default())
	require.NoError(t, err)
	assert.Equal(t, ssml.VariantCanonical, store.Variant())
	assert.True(t, store.Validate("<speak><emphasis>a</emphasis></speak>").Valid)

	strict, err := ssml.NewVariantValidator(ssml.VariantStrictWrapper)
	require.NoError(t, err)

	previous := store.Swap(strict)
	assert.Equal(t, ssml.VariantCanonical, previous.Variant())
	assert.Equal(t, ssml.VariantStrictWrapper, store.Variant())
	assert.False(t, store.Validate("<speak><emphasis>a</emphasis></speak>").Valid)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	writeRuleFile(t, path, `variant = "canonical"`)

	testLogger, err := logger.New(dir, "ruleset-test.log")
	require.NoError(t, err)

	initial, err := ruleset.LoadFile(path)
	require.NoError(t, err)

	store, err := ruleset.NewStore(initial)
	require.NoError(t, err)

	watcher, err := ruleset.NewWatcher(path, store, testLogger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- watcher.Run(ctx)
	}()

	// Give the watcher time to register before changing the file.
	time.Sleep(200 * time.Millisecond)
	writeRuleFile(t, path, `variant = "strict-wrapper"`)

	require.Eventually(t, func() bool {
		return store.Variant() == ssml.VariantStrictWrapper
	}, 5*time.Second, 50*time.Millisecond)

	writeRuleFile(t, path, `variant = "nonsense"`)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, ssml.VariantStrictWrapper, store.Variant(), "a broken file keeps the previous rules")

	cancel()
	require.NoError(t, <-errChan)
}

func TestWatcher_Reload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	writeRuleFile(t, path, `variant = "no-deprecated"`)

	testLogger, err := logger.New(dir, "ruleset-test.log")
	require.NoError(t, err)

	store, err := ruleset.NewStore(ssml.Default())
	require.NoError(t, err)

	watcher, err := ruleset.NewWatcher(path, store, testLogger)
	require.NoError(t, err)

	require.NoError(t, watcher.Reload())
	assert.Equal(t, ssml.VariantNoDeprecated, store.Variant())

	writeRuleFile(t, path, `root = ""`+"\n"+`variant = 3`)
	require.Error(t, watcher.Reload())
	assert.Equal(t, ssml.VariantNoDeprecated, store.Variant())
}
