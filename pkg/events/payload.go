package events

import "encoding/json"

// ContactCreated is the payload of a contact.created event.
type ContactCreated struct {
	ContactID   string  `json:"contactId"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	CompanyName *string `json:"company_name,omitempty"`
	Message     string  `json:"message"`
}

// MachineCreated is the payload of a machine.created event.
type MachineCreated struct {
	MachineID string  `json:"machineId"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Street    *string `json:"street,omitempty"`
}

// RequestCreated is the payload of a request.created event.
type RequestCreated struct {
	RequestID    string `json:"requestId"`
	CustomerName string `json:"customer_name"`
	DrinkName    string `json:"drink_name"`
	MachineID    string `json:"machine_id"`
	MachineName  string `json:"machine_name,omitempty"`
}

// DiscordNotification is the payload of a discord.notification event. The
// original event payload is carried as raw JSON so the side channel stays
// decoupled from the domain variants.
type DiscordNotification struct {
	EventType      string          `json:"eventType"`
	OriginalEvent  json.RawMessage `json:"originalEventData"`
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	NotificationID string          `json:"notificationId"`
}
