// Package css post-processes compiled style sheets: vendor prefix insertion,
// minification and source maps for concatenated bundles.
package css
