// Package clipper turns arbitrary web pages into clean, readable articles.
// It fetches a page with browser-like identities, extracts the main content
// through a cascade of strategies (readability, alternate fetches, selector
// heuristics, structured data, AMP and headless rendering), sanitizes the
// result for display and converts it to Markdown. It also proxies pages and
// images so a frontend can embed third-party content.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, sqlite/).
package clipper
