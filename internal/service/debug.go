package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// DebugCaseMethods lists the operations of the current session with their
// signatures, keeping those whose name contains filter (case-insensitive).
func (s *Service) DebugCaseMethods(ctx context.Context, caseID int, filter string) (string, error) {
	return s.run(ctx, "debug_case_methods", "introspecting case methods", func(_ context.Context, sess outbound.Session) (string, error) {
		s.logger.Debug("introspecting session", "case_id", caseID)
		needle := strings.ToLower(filter)
		var parts []string
		for _, name := range sess.Methods() {
			if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
				continue
			}
			m, ok := sess.Method(name)
			if !ok {
				continue
			}
			parts = append(parts, m.Signature())
		}
		if len(parts) == 0 {
			return fmt.Sprintf("No case methods matched filter '%s'.", filter), nil
		}
		return "Case methods:\n" + strings.Join(parts, "\n"), nil
	})
}
