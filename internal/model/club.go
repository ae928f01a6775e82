package model

import "slices"

// UnnamedClub is the display name used when a source record has no name.
const UnnamedClub = "Unnamed Club"

// RawClub is a club record as it arrives from a directory source. Any field
// may be absent; sources leave absent fields nil.
type RawClub struct {
	Name            *string
	Category        *string
	Related         []string
	Tags            []string
	Discord         *string
	President       *string
	MeetingSchedule *string
	Members         *int
	NextMeetings    []string
}

// Club is the canonical club record served by the directory.
type Club struct {
	Name            string   `json:"name" yaml:"name"`
	Category        string   `json:"category" yaml:"category"`
	Related         []string `json:"related" yaml:"related"`
	Tags            []string `json:"tags" yaml:"tags"`
	Discord         *string  `json:"discord" yaml:"discord"`
	President       *string  `json:"president" yaml:"president"`
	MeetingSchedule *string  `json:"meetingSchedule" yaml:"meetingSchedule"`
	Members         *int     `json:"members" yaml:"members"` // nil means unknown, not zero
	NextMeetings    []string `json:"nextMeetings" yaml:"nextMeetings"`
}

// Normalize converts a raw record into a Club. It never fails: sequence
// fields always come back non-nil and Name is never empty. Optional scalars
// (Discord, President, MeetingSchedule, Members) pass through untouched.
func Normalize(raw RawClub) Club {
	c := Club{
		Name:            UnnamedClub,
		Related:         orEmpty(raw.Related),
		Tags:            orEmpty(raw.Tags),
		Discord:         raw.Discord,
		President:       raw.President,
		MeetingSchedule: raw.MeetingSchedule,
		Members:         raw.Members,
		NextMeetings:    orEmpty(raw.NextMeetings),
	}
	if raw.Name != nil && *raw.Name != "" {
		c.Name = *raw.Name
	}
	if raw.Category != nil {
		c.Category = *raw.Category
	}
	return c
}

// NormalizeAll normalizes records in source order.
func NormalizeAll(raws []RawClub) []Club {
	out := make([]Club, len(raws))
	for i, r := range raws {
		out[i] = Normalize(r)
	}
	return out
}

// Raw converts a Club back into its loose form.
func (c Club) Raw() RawClub {
	name, category := c.Name, c.Category
	return RawClub{
		Name:            &name,
		Category:        &category,
		Related:         c.Related,
		Tags:            c.Tags,
		Discord:         c.Discord,
		President:       c.President,
		MeetingSchedule: c.MeetingSchedule,
		Members:         c.Members,
		NextMeetings:    c.NextMeetings,
	}
}

func orEmpty(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return slices.Clone(s)
}
