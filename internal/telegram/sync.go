package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintower/internal/ledger"
	"fintower/internal/services"
)

// OffsetSource identifies the bot API offset row in the ledger.
const OffsetSource = "telegram"

// TransactionRecorder records one free-text transaction line.
type TransactionRecorder interface {
	RecordText(ctx context.Context, text, source string) (services.RecordResult, error)
}

// Syncer drains pending bot messages into the ledger, advancing the
// stored offset so each message is processed at most once.
type Syncer struct {
	client   *Client
	recorder TransactionRecorder
	offsets  ledger.OffsetStore
}

func NewSyncer(client *Client, recorder TransactionRecorder, offsets ledger.OffsetStore) *Syncer {
	return &Syncer{client: client, recorder: recorder, offsets: offsets}
}

// Report summarizes one sync run.
type Report struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Lines     []string `json:"lines"`
}

// Sync fetches updates past the stored offset and records each text
// message. Commands and non-text updates are skipped. The offset is
// persisted once at the end so a crash mid-batch replays the whole batch
// rather than losing messages.
func (s *Syncer) Sync(ctx context.Context) (Report, error) {
	lastOffset, err := s.offsets.LastOffset(ctx, OffsetSource)
	if err != nil {
		return Report{}, fmt.Errorf("load telegram offset: %w", err)
	}

	updates, err := s.client.GetUpdates(ctx, lastOffset)
	if err != nil {
		return Report{}, err
	}
	if len(updates) == 0 {
		slog.InfoContext(ctx, "Telegram sync: no new messages")
		return Report{Lines: []string{"No new messages."}}, nil
	}

	slog.InfoContext(ctx, "Telegram sync: processing updates", "count", len(updates))

	var report Report
	maxID := lastOffset
	for _, u := range updates {
		if u.ID > maxID {
			maxID = u.ID
		}
		text := strings.TrimSpace(u.Text)
		if text == "" || strings.HasPrefix(text, "/") {
			report.Skipped++
			continue
		}

		res, err := s.recorder.RecordText(ctx, text, "Telegram")
		if err != nil {
			report.Failed++
			report.Lines = append(report.Lines, fmt.Sprintf("Failed to record %q: %v", text, err))
			slog.WarnContext(ctx, "Telegram sync: message failed", "update_id", u.ID, "error", err)
			continue
		}

		report.Processed++
		report.Lines = append(report.Lines, res.Message)
	}

	if maxID > lastOffset {
		if err := s.offsets.SetOffset(ctx, OffsetSource, maxID); err != nil {
			return report, fmt.Errorf("persist telegram offset: %w", err)
		}
	}

	return report, nil
}
