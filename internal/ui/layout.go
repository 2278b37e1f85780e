package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the input bar drops its labels.
	LayoutCompactWidth = 80
)

// Table sizing.
const (
	// ColumnMinWidth is the narrowest a result column is drawn.
	ColumnMinWidth = 3

	// ColumnMaxWidth caps wide free-text columns such as names.
	ColumnMaxWidth = 40

	// ChromeHeight is the number of rows used by everything except the table:
	// input bar, pane borders, status bar and footer.
	ChromeHeight = 5
)

// Log overlay limits.
const (
	// LogTailLines is the number of application log lines loaded into the overlay.
	LogTailLines = 500
)
