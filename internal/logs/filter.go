package logs

import "strings"

// RunFilter keeps lines logged for the run whose identifier starts with
// runID. Both the console format (run_id=...) and the JSON format
// ("run_id":"...") are recognized. An empty runID keeps every line.
func RunFilter(runID string) Filter {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil
	}
	console := "run_id=" + runID
	json := `"run_id":"` + runID
	return func(line string) bool {
		return strings.Contains(line, console) || strings.Contains(line, json)
	}
}
