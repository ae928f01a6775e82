package directory

import (
	"strconv"
	"strings"

	"github.com/sells-group/mission-control/internal/model"
)

// MaxContextClubs bounds the prompt size: clubs past this index never reach
// the model context, though the ranker still sees them.
const MaxContextClubs = 200

// Compact renders one summary line per club, newline-joined, for at most
// MaxContextClubs clubs in directory order.
func Compact(clubs []model.Club) string {
	if len(clubs) > MaxContextClubs {
		clubs = clubs[:MaxContextClubs]
	}

	var b strings.Builder
	for i, c := range clubs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Name: ")
		b.WriteString(oneLine(c.Name))
		b.WriteString("; Category: ")
		b.WriteString(orNA(c.Category))
		b.WriteString("; Related: ")
		if len(c.Related) > 0 {
			b.WriteString(oneLine(strings.Join(c.Related, ", ")))
		} else {
			b.WriteString("—")
		}
		b.WriteString("; Members: ")
		if c.Members != nil {
			b.WriteString(strconv.Itoa(*c.Members))
		} else {
			b.WriteString("unknown")
		}
		b.WriteString("; Meetings: ")
		b.WriteString(optNA(c.MeetingSchedule))
		b.WriteString("; Discord: ")
		b.WriteString(optNA(c.Discord))
		b.WriteString("; President: ")
		b.WriteString(optNA(c.President))
	}
	return b.String()
}

// lineBreaks folds embedded line breaks so each club stays on one line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func oneLine(s string) string {
	return lineBreaks.Replace(s)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return oneLine(s)
}

func optNA(s *string) string {
	if s == nil {
		return "n/a"
	}
	return orNA(*s)
}
