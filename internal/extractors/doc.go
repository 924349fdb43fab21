// Package extractors provides PageExtractor implementations and the
// registry that selects one by file extension.
//
// Extractors are registered with the Registry at startup.
package extractors
