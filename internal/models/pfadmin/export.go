package pfadmin

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ExportCSV sérialise une collection en CSV, en-tête inclus. Les kinds
// reconnus sont "submissions", "queries" et "visits".
func (s *Service) ExportCSV(ctx context.Context, kind string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	switch kind {
	case "submissions":
		w.Write([]string{"id", "name", "email", "subject", "message", "timestamp", "ip_address"})
		for _, sub := range s.Submissions(ctx) {
			w.Write([]string{
				sub.ID, sub.Name, sub.Email, sub.Subject, sub.Message,
				sub.Timestamp.Format(time.RFC3339), sub.IPAddress,
			})
		}
	case "queries":
		w.Write([]string{"id", "prompt", "provider", "content_type", "timestamp"})
		for _, q := range s.Queries(ctx) {
			w.Write([]string{
				q.ID, q.Prompt, q.Provider, q.ContentType,
				q.Timestamp.Format(time.RFC3339),
			})
		}
	case "visits":
		w.Write([]string{"id", "page", "timestamp", "session_id", "country", "new_visitor"})
		for _, v := range s.tracker.RecentVisits(ctx, -1) {
			w.Write([]string{
				v.ID, v.Page, v.Timestamp.Format(time.RFC3339),
				v.SessionID, v.Country, strconv.FormatBool(v.IsNewVisitor),
			})
		}
	default:
		return nil, fmt.Errorf("export inconnu: %s", kind)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
