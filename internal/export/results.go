// Package export moves matchmaking data in and out of Excel workbooks.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const ResultsSheet = "Results"

var resultHeaders = []string{"Game ID", "Match ID", "Sport", "Scheduled At", "Team A", "Team B", "Finalized At"}

// ResultRow is one finalized game as written to the workbook.
type ResultRow struct {
	GameID      uint
	MatchID     uint
	Sport       models.Sport
	ScheduledAt time.Time
	TeamA       int
	TeamB       int
	FinalizedAt time.Time
}

// ResultSource is the part of the store the export reads.
type ResultSource interface {
	repositories.GameStore
	repositories.MatchStore
}

// CollectResults loads every finalized game with its match.
func CollectResults(ctx context.Context, src ResultSource) ([]ResultRow, error) {
	games, err := src.ListFinalizedGames(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]ResultRow, 0, len(games))
	for _, g := range games {
		match, err := src.GetMatchByID(ctx, g.MatchID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ResultRow{
			GameID:      g.ID,
			MatchID:     g.MatchID,
			Sport:       match.Sport,
			ScheduledAt: match.ScheduledAt,
			TeamA:       g.ResultTeamA,
			TeamB:       g.ResultTeamB,
			FinalizedAt: *g.FinalizedAt,
		})
	}
	return rows, nil
}

// WriteResults renders rows into a single-sheet workbook.
func WriteResults(w io.Writer, rows []ResultRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to name sheet")
	}

	if err := f.SetSheetRow(ResultsSheet, "A1", &resultHeaders); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write header")
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to address row")
		}
		values := []interface{}{
			r.GameID,
			r.MatchID,
			string(r.Sport),
			r.ScheduledAt.UTC().Format(time.RFC3339),
			r.TeamA,
			r.TeamB,
			r.FinalizedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(ResultsSheet, cell, &values); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, fmt.Sprintf("failed to write game %d", r.GameID))
		}
	}

	if err := f.SetColWidth(ResultsSheet, "A", "G", 18); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to size columns")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write workbook")
	}
	return nil
}
