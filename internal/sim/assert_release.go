//go:build !simdebug

package sim

const debugAssertions = false
