//go:build simdebug

package sim

const debugAssertions = true
