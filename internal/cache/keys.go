package cache

import "fmt"

func AnalysisStatusKey(analysisID int64) string {
	return fmt.Sprintf("analysis:%d:status", analysisID)
}

func RateLimitKey(clientKey string) string {
	return fmt.Sprintf("ratelimit:%s", clientKey)
}
