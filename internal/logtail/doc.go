// Package logtail reads the tail of the Portfolio Finder log file for the
// in-app log overlay.
//
// Read scans the file once and keeps at most a bounded window of lines, so
// large log files never need to fit in memory. Level pulls the severity
// token written by zerolog's console writer so the UI can colour lines.
//
//	lines, err := logtail.Read(cfg.LogFile, 200)
//	if err != nil {
//		return err
//	}
package logtail
