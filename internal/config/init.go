package config

import (
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

const exampleConfig = `# sitebuilder configuration
dir:
  input: src
  output: dist
  includes: _includes
  data: _data

template_formats: [html, md, scss, sass]
path_prefix: /

# source (project relative) -> destination (output relative)
passthrough:
  node_modules/@fontsource/quicksand/files: css/files
  node_modules/vanilla-tilt/dist/vanilla-tilt.min.js: js/vanilla-tilt.min.js
  src/js: js
  src/dat: dat
  src/img: img

output:
  clean: true

sass:
  load_paths: [node_modules]
  style: expanded
  timeout: 30s

css:
  prefixes: [webkit, moz, ms]
  minify: true

html:
  minify: true

legacy:
  clean: [dist/css, dist/js]
  fonts:
    from: node_modules/typeface-quicksand/files
    to: dist/css/files
  styles:
    sources:
      - node_modules/normalize.css/normalize.css
      - node_modules/typeface-quicksand/index.css
      - src/css/base.css
      - src/css/styles.css
    output: dist/css/styles.min.css
  scripts:
    sources:
      - node_modules/vanilla-tilt/dist/vanilla-tilt.min.js
      - src/js/**/*.js
    output: dist/js

build:
  concurrency: 0

history:
  path: ${SITEBUILDER_HISTORY}

logging:
  level: info
  format: text
`

// Init writes an example configuration file. It refuses to overwrite an
// existing file unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ValidationFailed("config", "configuration file already exists: "+path+" (use --force to overwrite)")
	}
	// #nosec G306 -- configuration files are not secret
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return errors.FileSystemError("write", path, err)
	}
	return nil
}
