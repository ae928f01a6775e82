package directory

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/mission-control/internal/model"
)

// XLSXSource reads clubs from a spreadsheet whose first row names the
// columns. List columns (related, tags, next meetings) hold comma-separated
// values; blank cells are treated as absent.
type XLSXSource struct {
	Path       string
	SheetName  string // if set, overrides SheetIndex
	SheetIndex int
}

func (s *XLSXSource) Name() string { return "xlsx:" + s.Path }

func (s *XLSXSource) Load(ctx context.Context) ([]model.RawClub, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("directory: source file not found, starting empty", zap.String("path", s.Path))
		return nil, nil
	}

	f, err := xlsx.OpenFile(s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := s.sheet(f)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	cols := headerColumns(rowToStrings(sheet.Rows[0]))
	var out []model.RawClub
	for _, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "xlsx: context cancelled")
		}
		cells := rowToStrings(row)
		if blankRow(cells) {
			continue
		}
		out = append(out, cols.club(cells))
	}
	return out, nil
}

func (s *XLSXSource) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if s.SheetName != "" {
		sheet, ok := f.Sheet[s.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", s.SheetName)
		}
		return sheet, nil
	}

	if s.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", s.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[s.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columnIndex maps a canonical field name to its column position.
type columnIndex map[string]int

// headerAliases maps normalized header text to a canonical field name.
var headerAliases = map[string]string{
	"name":             "name",
	"club":             "name",
	"category":         "category",
	"related":          "related",
	"tags":             "tags",
	"discord":          "discord",
	"president":        "president",
	"meetingschedule":  "meetingSchedule",
	"meeting_schedule": "meetingSchedule",
	"meetings":         "meetingSchedule",
	"members":          "members",
	"nextmeetings":     "nextMeetings",
	"next_meetings":    "nextMeetings",
}

func headerColumns(header []string) columnIndex {
	cols := columnIndex{}
	for i, h := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", "_"))
		field, ok := headerAliases[key]
		if !ok {
			field, ok = headerAliases[strings.ReplaceAll(key, "_", "")]
		}
		if ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	return cols
}

func (c columnIndex) cell(cells []string, field string) (string, bool) {
	i, ok := c[field]
	if !ok || i >= len(cells) {
		return "", false
	}
	v := strings.TrimSpace(cells[i])
	return v, v != ""
}

func (c columnIndex) str(cells []string, field string) *string {
	v, ok := c.cell(cells, field)
	if !ok {
		return nil
	}
	return &v
}

func (c columnIndex) list(cells []string, field string) []string {
	v, ok := c.cell(cells, field)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c columnIndex) club(cells []string) model.RawClub {
	raw := model.RawClub{
		Name:            c.str(cells, "name"),
		Category:        c.str(cells, "category"),
		Related:         c.list(cells, "related"),
		Tags:            c.list(cells, "tags"),
		Discord:         c.str(cells, "discord"),
		President:       c.str(cells, "president"),
		MeetingSchedule: c.str(cells, "meetingSchedule"),
		NextMeetings:    c.list(cells, "nextMeetings"),
	}
	if v, ok := c.cell(cells, "members"); ok {
		raw.Members = parseCount(v)
	}
	return raw
}
