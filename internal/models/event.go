package models

// Event is the calendar event record delivered by the event-creation trigger.
// Times arrive either as one combined StartDateTime or as StartDate plus Time.
type Event struct {
	ID            string `json:"id" binding:"required"`
	Title         string `json:"title"`
	GroupID       string `json:"groupId"`
	CreatorID     string `json:"creatorId"`
	IsPersonal    bool   `json:"isPersonal"`
	StartDateTime string `json:"startDateTime,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	Time          string `json:"time,omitempty"`
}

// EventDeleted is the payload of the event-deletion trigger
type EventDeleted struct {
	ID string `json:"id" binding:"required"`
}
