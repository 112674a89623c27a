package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, "output:\n  clean: true\n")

	cfg, err := Load(p)
	require.NoError(t, err)

	require.Equal(t, filepath.Dir(p), cfg.BaseDir)
	require.Equal(t, "src", cfg.Dir.Input)
	require.Equal(t, "dist", cfg.Dir.Output)
	require.Equal(t, "_includes", cfg.Dir.Includes)
	require.Equal(t, "_data", cfg.Dir.Data)
	require.Equal(t, []string{"html", "md", "scss", "sass"}, cfg.TemplateFormats)
	require.Equal(t, "/", cfg.PathPrefix)
	require.Equal(t, []string{"node_modules"}, cfg.Sass.LoadPaths)
	require.Equal(t, []string{"webkit", "moz", "ms"}, cfg.CSS.Prefixes)
	require.True(t, cfg.Output.Clean)
	require.True(t, cfg.HTMLMinify())
	require.True(t, cfg.CSSMinify())

	require.Equal(t, "dist/css/styles.min.css", cfg.Legacy.Styles.Output)
	require.Equal(t, "dist/js", cfg.Legacy.Scripts.Output)
	require.Equal(t, "dist/css/files", cfg.Legacy.Fonts.To)
	require.Equal(t, []string{"dist/css", "dist/js"}, cfg.Legacy.Clean)

	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)

	require.Equal(t, filepath.Join(cfg.BaseDir, "src", "_includes"), cfg.IncludesDir())
	require.Equal(t, filepath.Join(cfg.BaseDir, "dist"), cfg.OutputDir())
}

func TestExplicitFalseMinifyPreserved(t *testing.T) {
	cfg, err := Parse([]byte("html:\n  minify: false\ncss:\n  minify: false\n"))
	require.NoError(t, err)
	require.False(t, cfg.HTMLMinify())
	require.False(t, cfg.CSSMinify())
}

func TestEmptyPrefixListPreserved(t *testing.T) {
	cfg, err := Parse([]byte("css:\n  prefixes: []\n"))
	require.NoError(t, err)
	require.Empty(t, cfg.CSS.Prefixes)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("SB_OUT", "public")
	p := writeConfig(t, "dir:\n  output: ${SB_OUT}\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "public", cfg.Dir.Output)
	require.Equal(t, "public/css/styles.min.css", cfg.Legacy.Styles.Output)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestLoadInvalidYAML(t *testing.T) {
	p := writeConfig(t, "dir: [unterminated\n")
	_, err := Load(p)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"same input and output", "dir:\n  input: site\n  output: site\n"},
		{"input inside output", "dir:\n  input: dist/src\n  output: dist\n"},
		{"includes escapes input", "dir:\n  includes: ../shared\n"},
		{"unknown template format", "template_formats: [html, pug]\n"},
		{"unknown prefix", "css:\n  prefixes: [o]\n"},
		{"unknown sass style", "sass:\n  style: nested\n"},
		{"bad sass timeout", "sass:\n  timeout: soon\n"},
		{"passthrough escapes output", "passthrough:\n  src/img: ../img\n"},
		{"passthrough collision", "passthrough:\n  src/img: assets\n  static/img: assets/\n"},
		{"legacy clean project root", "legacy:\n  clean: [.]\n"},
		{"legacy clean escapes project", "legacy:\n  clean: [../dist]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			cfg.BaseDir = t.TempDir()
			err = ValidateConfig(cfg)
			require.Error(t, err)
			require.True(t, errors.IsCategory(err, errors.CategoryValidation), "got %v", err)
		})
	}
}

func TestValidationAcceptsOutputInsideInput(t *testing.T) {
	cfg, err := Parse([]byte("dir:\n  input: .\n  output: _site\n"))
	require.NoError(t, err)
	cfg.BaseDir = t.TempDir()
	require.NoError(t, ValidateConfig(cfg))
}

func TestNormalizeLogging(t *testing.T) {
	require.Equal(t, LogLevelWarn, NormalizeLogLevel(" WARNING "))
	require.Equal(t, LogLevelDebug, NormalizeLogLevel("debug"))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("loud"))
	require.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	require.Equal(t, LogFormatText, NormalizeLogFormat(""))
}

func TestInitWritesLoadableConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, Init(p, false))
	require.Error(t, Init(p, false))
	require.NoError(t, Init(p, true))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "css/files", cfg.Passthrough["node_modules/@fontsource/quicksand/files"])
	require.Len(t, cfg.Legacy.Styles.Sources, 4)
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SB_A=from-file\nSB_B=from-file\n"), 0o600))
	t.Setenv("SB_A", "from-env")
	t.Setenv("SB_B", "")
	require.NoError(t, os.Unsetenv("SB_B"))

	loaded, err := LoadEnvFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, ".env")}, loaded)
	require.Equal(t, "from-env", os.Getenv("SB_A"))
	require.Equal(t, "from-file", os.Getenv("SB_B"))
}
