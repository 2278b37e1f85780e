package pam

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultMaxCount is the maximumCount sent when none is configured.
const DefaultMaxCount = 1000

// Category is the portfolio type group selected in the input bar.
type Category int

const (
	CategoryMyPortfolios Category = iota
	CategoryIndices
	CategoryPeerMonitor
)

// Categories returns the selectable categories in display order.
func Categories() []Category {
	return []Category{CategoryMyPortfolios, CategoryIndices, CategoryPeerMonitor}
}

// Label returns the display name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryIndices:
		return "All Indices"
	case CategoryPeerMonitor:
		return "Peer & Monitor Lists"
	default:
		return "My Portfolios & Lists"
	}
}

// PortfolioType is one value of the portfolioTypes query parameter.
type PortfolioType string

const (
	MarketIndex              PortfolioType = "MarketIndex"
	PeerList                 PortfolioType = "PeerList"
	MonitorList              PortfolioType = "MonitorList"
	FundedPortfolio          PortfolioType = "FundedPortfolio"
	CompositeFundedPortfolio PortfolioType = "CompositeFundedPortfolio"
	CarveOutPortfolio        PortfolioType = "CarveOutPortfolio"
	ModelPortfolio           PortfolioType = "ModelPortfolio"
	WatchList                PortfolioType = "WatchList"
)

// TypesFor maps a category to the portfolio types it searches. Unknown
// categories fall back to the owned portfolio types.
func TypesFor(c Category) []PortfolioType {
	switch c {
	case CategoryIndices:
		return []PortfolioType{MarketIndex}
	case CategoryPeerMonitor:
		return []PortfolioType{PeerList, MonitorList}
	default:
		return []PortfolioType{
			FundedPortfolio,
			CompositeFundedPortfolio,
			CarveOutPortfolio,
			ModelPortfolio,
			WatchList,
		}
	}
}

// Criteria describes one search submission.
type Criteria struct {
	Category Category
	Query    string
	MaxCount int
}

// BuildParams encodes the search query parameters. A nil types slice omits
// portfolioTypes; a blank query omits the query triple entirely.
func BuildParams(types []PortfolioType, query string, maxCount int) url.Values {
	values := url.Values{}
	values.Set("maximumCount", strconv.Itoa(maxCount))

	if types != nil {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		values.Set("portfolioTypes", strings.Join(names, ","))
	}

	if q := strings.TrimSpace(query); q != "" {
		values.Set("query", q)
		values.Set("queryField", "Any")
		values.Set("queryCondition", "Contains")
	}
	return values
}
