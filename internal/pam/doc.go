// Package pam provides the portfolio search client for the data platform's
// portfolio management API.
//
// # Overview
//
// A search maps a Category onto the portfolioTypes it covers, encodes the
// query parameters and issues one GET against the search endpoint through an
// authenticated session. The response's portfolioHeaders array is decoded
// into portfolio.Header values.
//
// # Architecture
//
//   - types.go: categories, portfolio types and query parameter encoding
//   - client.go: the rate-limited HTTP client
//   - errors.go: failure classification into *Error
//
// # Client Usage
//
// The client never opens a session itself. The caller injects whatever sends
// authenticated requests:
//
//	client := pam.NewClient(sess,
//		pam.WithLogger(logger),
//		pam.WithRateLimit(5),
//	)
//
//	headers, err := client.Search(ctx, pam.Criteria{
//		Category: pam.CategoryIndices,
//		Query:    "world",
//		MaxCount: 1000,
//	})
//
// # Parameters
//
//	maximumCount    always sent
//	portfolioTypes  comma-joined types of the category
//	query           only when the trimmed query is non-empty, together with
//	queryField      Any
//	queryCondition  Contains
//
// # Errors
//
// Every failure comes back as *Error with a message ready for the status bar:
//
//	timeout      Request timed out. Consider increasing the request timeout ...
//	permission   Request failed. Insufficient permissions to access this service: <detail>
//	http         Request failed. [Error code: 404 - Not Found]
//	generic      Request failed. Exception: <type>. <message>
//
// Searches are never retried.
package pam
