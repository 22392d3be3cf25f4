package workers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"commander-tracker/models"
	"commander-tracker/repository"
	"commander-tracker/utils"

	"github.com/go-co-op/gocron/v2"
)

// SnapshotWorker exports the full match history to CSV once a day and
// uploads it to R2. The hosted database is the source of truth; this is
// the cheap off-site copy for when the free tier eats the data.
type SnapshotWorker struct {
	Store     repository.Store
	scheduler gocron.Scheduler
}

func NewSnapshotWorker(store repository.Store) *SnapshotWorker {
	return &SnapshotWorker{Store: store}
}

// Start schedules the daily export. No-op scheduling errors are logged,
// not fatal; the tracker works without backups.
func (w *SnapshotWorker) Start(ctx context.Context) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[SNAPSHOT] failed to create scheduler: %v", err)
		return
	}
	w.scheduler = sched
	sched.Start()

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(4, 0, 0))),
		gocron.NewTask(func() {
			if err := w.ExportOnce(ctx); err != nil {
				log.Printf("[SNAPSHOT] export failed: %v", err)
			}
		}),
	)
	if err != nil {
		log.Printf("[SNAPSHOT] failed to schedule export: %v", err)
		return
	}
	log.Println("✅ Daily history snapshot scheduled (04:00)")
}

func (w *SnapshotWorker) Stop() {
	if w.scheduler != nil {
		_ = w.scheduler.Shutdown()
	}
}

// ExportOnce pulls the full history, renders it to CSV and ships it.
func (w *SnapshotWorker) ExportOnce(ctx context.Context) error {
	rows, err := w.Store.LoadHistory(ctx, repository.DefaultHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to load history for snapshot: %w", err)
	}

	data, err := HistoryCSV(rows)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("snapshots/history-%s.csv", time.Now().Format(models.DateLayout))
	url, err := utils.UploadBytesToR2(ctx, data, key, "text/csv")
	if err != nil {
		return err
	}

	log.Printf("✅ [SNAPSHOT] exported %d history rows to %s", len(rows), url)
	return nil
}

// HistoryCSV renders history rows with a header line, one line per
// (match, participant) pair.
func HistoryCSV(rows []models.HistoryRow) ([]byte, error) {
	var buf bytes.Buffer
	wr := csv.NewWriter(&buf)

	record := []string{"match_id", "date", "player_name", "deck_name", "color_identity", "is_winner", "turn_eliminated", "eliminated_by"}
	if err := wr.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record = []string{
			row.MatchID,
			row.Date,
			row.PlayerName,
			row.DeckName,
			row.ColorIdentity,
			strconv.FormatBool(row.IsWinner),
			strconv.Itoa(row.TurnEliminated),
			row.EliminatedBy,
		}
		if err := wr.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	wr.Flush()
	if err := wr.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
