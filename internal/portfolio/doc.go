// Package portfolio models the portfolio search result set for display.
//
// # Overview
//
// The search endpoint returns a flat array of header objects whose exact
// shape varies by portfolio type. Header decodes each object into a fixed
// set of optional typed fields plus a catch-all map, keeping the payload key
// order. Model turns a slice of headers into rows and columns:
//
//   - Column "#" is a 1-based row number in original order
//   - Column "family" is lifted out of extendedProperties (empty when missing)
//   - Nested objects and accessibility are not displayed
//   - numberOfConstituents, organizationCode, lastModifiedDateTime and
//     createdDateTime get friendlier labels
//
// # Filtering and Sorting
//
// One family value can be selected as an exact-match filter. The view is
// always re-derived from the unfiltered rows, so filter and clear cycles
// never lose or duplicate rows. One column can be sorted ascending or
// descending; numeric cells compare by value and the sort survives filter
// changes.
//
// # Status
//
// Every load and filter change produces a status message:
//
//	Found a total of 12 portfolios
//	Found a total of 5 portfolios based on the filter: Equity
//
// Register a Listener with WithListener to receive them.
package portfolio
