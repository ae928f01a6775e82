package directory

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/mission-control/internal/model"
)

// record is the on-disk shape of a club. Older data files use snake_case for
// the multi-word fields; camelCase wins when a record carries both.
type record struct {
	Name                 *string  `json:"name" yaml:"name"`
	Category             *string  `json:"category" yaml:"category"`
	Related              []string `json:"related" yaml:"related"`
	Tags                 []string `json:"tags" yaml:"tags"`
	Discord              *string  `json:"discord" yaml:"discord"`
	President            *string  `json:"president" yaml:"president"`
	MeetingSchedule      *string  `json:"meetingSchedule" yaml:"meetingSchedule"`
	MeetingScheduleSnake *string  `json:"meeting_schedule" yaml:"meeting_schedule"`
	Members              flexInt  `json:"members" yaml:"members"`
	NextMeetings         []string `json:"nextMeetings" yaml:"nextMeetings"`
	NextMeetingsSnake    []string `json:"next_meetings" yaml:"next_meetings"`
}

func (r record) raw() model.RawClub {
	raw := model.RawClub{
		Name:            r.Name,
		Category:        r.Category,
		Related:         r.Related,
		Tags:            r.Tags,
		Discord:         r.Discord,
		President:       r.President,
		MeetingSchedule: r.MeetingSchedule,
		Members:         r.Members.value,
		NextMeetings:    r.NextMeetings,
	}
	if raw.MeetingSchedule == nil {
		raw.MeetingSchedule = r.MeetingScheduleSnake
	}
	if raw.NextMeetings == nil {
		raw.NextMeetings = r.NextMeetingsSnake
	}
	return raw
}

func recordsToRaw(recs []record) []model.RawClub {
	out := make([]model.RawClub, len(recs))
	for i, r := range recs {
		out[i] = r.raw()
	}
	return out
}

// flexInt accepts a member count written as a number or a numeric string.
// Anything else (null, "", "lots", 3.5, counts past int32) leaves the count
// unknown.
type flexInt struct {
	value *int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || t < math.MinInt32 || t > math.MaxInt32 {
			f.value = nil
			break
		}
		n := int(t)
		f.value = &n
	case string:
		f.value = parseCount(t)
	default:
		f.value = nil
	}
	return nil
}

func (f *flexInt) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		f.value = nil
		return nil
	}
	f.value = parseCount(node.Value)
	return nil
}

func parseCount(s string) *int {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}
