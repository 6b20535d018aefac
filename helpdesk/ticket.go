package helpdesk

// Contact identifies the person a ticket is raised for. The helpdesk
// auto-creates the contact when it does not exist yet.
type Contact struct {
	Name  string `json:"lastName"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Ticket is the creation payload for a support ticket. Description carries
// HTML produced by BuildDescription.
type Ticket struct {
	Subject      string  `json:"subject"`
	DepartmentID string  `json:"departmentId"`
	Description  string  `json:"description"`
	Priority     string  `json:"priority,omitempty"`
	Channel      string  `json:"channel,omitempty"`
	Contact      Contact `json:"contact"`
}

// CreatedTicket is the helpdesk's acknowledgement of a created ticket.
type CreatedTicket struct {
	ID           string `json:"id"`
	TicketNumber string `json:"ticketNumber"`
	WebURL       string `json:"webUrl,omitempty"`
}
