package commands

import (
	"fmt"
	"time"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const divider = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// printHeader prints a command banner
func printHeader(title string) {
	fmt.Printf("=== chartsignal %s ===\n\n", title)
}

// formatTime renders an optional timestamp
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
