package export

import (
	"io"
	"strings"

	"github.com/mroshb/matchday/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// RosterMember is one player row of a roster sheet.
type RosterMember struct {
	Nickname string
	City     string
	District string
}

// RosterGroup is a group code with its members in sheet order.
type RosterGroup struct {
	Code    string
	Name    string
	Members []RosterMember
}

// ReadRoster parses every sheet of a roster workbook. Each row after the
// header holds: group code, group name, nickname, city, district. Rows of one
// code are collected into one group in first-seen order; rows without a code
// are grouped by name instead.
func ReadRoster(r io.Reader) ([]RosterGroup, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to open roster workbook")
	}
	defer f.Close()

	index := make(map[string]int)
	var groups []RosterGroup

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read sheet "+sheet)
		}

		for i, row := range rows {
			if i == 0 || len(row) < 3 { // Skip header or short rows
				continue
			}

			code := strings.TrimSpace(row[0])
			name := strings.TrimSpace(row[1])
			nickname := strings.TrimSpace(row[2])
			if (code == "" && name == "") || nickname == "" {
				continue
			}

			key := "code:" + code
			if code == "" {
				key = "name:" + name
			}

			gi, ok := index[key]
			if !ok {
				gi = len(groups)
				index[key] = gi
				groups = append(groups, RosterGroup{Code: code, Name: name})
			}

			groups[gi].Members = append(groups[gi].Members, RosterMember{
				Nickname: nickname,
				City:     cell(row, 3),
				District: cell(row, 4),
			})
		}
	}

	return groups, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
