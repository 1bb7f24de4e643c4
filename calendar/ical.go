package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const icalProductID = "-//meetingmesh//scheduling assistant//EN"

// RenderInvite renders an iCalendar REQUEST for the created event so it can
// be mailed or published to attendees. The UID is the provider event id when
// present.
func RenderInvite(event Event, payload EventPayload) (string, error) {
	uid := event.ID
	if uid == "" {
		uid = uuid.NewString()
	}

	ve := ical.NewEvent()
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, payload.Start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, payload.End.UTC())
	ve.Props.SetText(ical.PropSummary, payload.Title)
	if payload.Description != "" {
		ve.Props.SetText(ical.PropDescription, payload.Description)
	}
	switch {
	case event.MeetingLink != "":
		ve.Props.SetText(ical.PropLocation, event.MeetingLink)
	case payload.Location != "":
		ve.Props.SetText(ical.PropLocation, payload.Location)
	}
	for _, a := range payload.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + strings.TrimSpace(a.Email)
		if name := strings.TrimSpace(a.FirstName + " " + a.LastName); name != "" {
			prop.Params.Set(ical.ParamCommonName, name)
		}
		if a.IsRequired {
			prop.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
		} else {
			prop.Params.Set(ical.ParamRole, "OPT-PARTICIPANT")
		}
		ve.Props.Add(prop)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icalProductID)
	cal.Props.SetText(ical.PropMethod, "REQUEST")
	cal.Children = append(cal.Children, ve.Component)

	var b strings.Builder
	if err := ical.NewEncoder(&b).Encode(cal); err != nil {
		return "", fmt.Errorf("calendar: encode invite: %w", err)
	}
	return b.String(), nil
}
