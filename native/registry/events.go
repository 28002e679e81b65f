package registry

import "pharmanet/core/events"

const EventTypeCompanyRegistered = "pharma.company.registered"

// CompanyRegisteredEvent returns the canonical event payload for a newly
// registered company.
func CompanyRegisteredEvent(c *Company) events.Event {
	return events.Event{
		Type: EventTypeCompanyRegistered,
		Attributes: map[string]string{
			"companyId": c.ID,
			"crn":       c.CRN,
			"name":      c.Name,
			"role":      string(c.Role),
		},
	}
}
