// Command jewelharvester runs the autonomous jewelry product harvester.
//
// It exposes an HTTP API for submitting harvest jobs against storefront
// URLs. Each job renders pages with a headless browser, classifies them,
// follows product and collection links within the page budget, and stores
// the extracted, normalized, and AI-enriched products along with their
// images.
//
// Usage:
//
//	jewelharvester -config config.yaml
//
// Configuration may also be supplied through HARVESTER_* environment
// variables.
package main
