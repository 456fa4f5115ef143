package contact

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
)

// CreatePersonRequest is the input for creating a person
type CreatePersonRequest struct {
	FirstName    string     `json:"first_name" binding:"required,min=1,max=100"`
	LastName     string     `json:"last_name" binding:"max=100"`
	Email        string     `json:"email" binding:"omitempty,email"`
	Phone        string     `json:"phone" binding:"max=50"`
	Address      string     `json:"address" binding:"max=255"`
	City         string     `json:"city" binding:"max=100"`
	State        string     `json:"state" binding:"max=100"`
	PostalCode   string     `json:"postal_code" binding:"max=20"`
	Notes        string     `json:"notes"`
	HouseholdID  *uuid.UUID `json:"household_id"`
	CampaignID   *uuid.UUID `json:"campaign_id"`
	DoNotContact bool       `json:"do_not_contact"`
	Tags         []string   `json:"tags"`
}

// UpdatePersonRequest is the partial-update input for a person. Only fields
// present in the request body are written.
type UpdatePersonRequest struct {
	FirstName    *string    `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName     *string    `json:"last_name" binding:"omitempty,max=100"`
	Email        *string    `json:"email" binding:"omitempty,email"`
	Phone        *string    `json:"phone" binding:"omitempty,max=50"`
	Address      *string    `json:"address" binding:"omitempty,max=255"`
	City         *string    `json:"city" binding:"omitempty,max=100"`
	State        *string    `json:"state" binding:"omitempty,max=100"`
	PostalCode   *string    `json:"postal_code" binding:"omitempty,max=20"`
	Notes        *string    `json:"notes"`
	HouseholdID  *uuid.UUID `json:"household_id"`
	CampaignID   *uuid.UUID `json:"campaign_id"`
	LastContact  *time.Time `json:"last_contact"`
	DoNotContact *bool      `json:"do_not_contact"`
}

// Values converts the set fields into an update map
func (r UpdatePersonRequest) Values() map[string]any {
	values := map[string]any{}
	setString(values, "first_name", r.FirstName)
	setString(values, "last_name", r.LastName)
	setString(values, "email", r.Email)
	setString(values, "phone", r.Phone)
	setString(values, "address", r.Address)
	setString(values, "city", r.City)
	setString(values, "state", r.State)
	setString(values, "postal_code", r.PostalCode)
	setString(values, "notes", r.Notes)
	if r.HouseholdID != nil {
		values["household_id"] = *r.HouseholdID
	}
	if r.CampaignID != nil {
		values["campaign_id"] = *r.CampaignID
	}
	if r.LastContact != nil {
		values["last_contact"] = *r.LastContact
	}
	if r.DoNotContact != nil {
		values["do_not_contact"] = *r.DoNotContact
	}
	return values
}

// PersonResponse is the wire representation of a person
type PersonResponse struct {
	ID               uuid.UUID  `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Address          string     `json:"address,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	PostalCode       string     `json:"postal_code,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	HouseholdID      *uuid.UUID `json:"household_id,omitempty"`
	HouseholdName    string     `json:"household_name,omitempty"`
	HouseholdAddress string     `json:"household_address,omitempty"`
	HouseholdCity    string     `json:"household_city,omitempty"`
	CampaignID       *uuid.UUID `json:"campaign_id,omitempty"`
	FileID           *uuid.UUID `json:"file_id,omitempty"`
	LastContact      *time.Time `json:"last_contact,omitempty"`
	DoNotContact     bool       `json:"do_not_contact"`
	Tags             []string   `json:"tags,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toPersonResponse(p *models.Person) *PersonResponse {
	return &PersonResponse{
		ID:           p.ID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		PostalCode:   p.PostalCode,
		Notes:        p.Notes,
		HouseholdID:  p.HouseholdID,
		CampaignID:   p.CampaignID,
		FileID:       p.FileID,
		LastContact:  p.LastContact,
		DoNotContact: p.DoNotContact,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toPersonPage(page shared.Page[persistence.PersonListRow]) shared.Page[PersonResponse] {
	rows := make([]PersonResponse, len(page.Rows))
	for i, row := range page.Rows {
		resp := toPersonResponse(&row.Person)
		resp.HouseholdName = row.HouseholdName
		resp.HouseholdAddress = row.HouseholdAddress
		resp.HouseholdCity = row.HouseholdCity
		rows[i] = *resp
	}
	return shared.Page[PersonResponse]{Rows: rows, Count: page.Count}
}

// CreateHouseholdRequest is the input for creating a household
type CreateHouseholdRequest struct {
	Name       string     `json:"name" binding:"required,min=1,max=255"`
	Email      string     `json:"email" binding:"omitempty,email"`
	Phone      string     `json:"phone" binding:"max=50"`
	Address    string     `json:"address" binding:"max=255"`
	City       string     `json:"city" binding:"max=100"`
	State      string     `json:"state" binding:"max=100"`
	PostalCode string     `json:"postal_code" binding:"max=20"`
	Notes      string     `json:"notes"`
	CampaignID *uuid.UUID `json:"campaign_id"`
	Tags       []string   `json:"tags"`
}

// UpdateHouseholdRequest is the partial-update input for a household
type UpdateHouseholdRequest struct {
	Name       *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Email      *string    `json:"email" binding:"omitempty,email"`
	Phone      *string    `json:"phone" binding:"omitempty,max=50"`
	Address    *string    `json:"address" binding:"omitempty,max=255"`
	City       *string    `json:"city" binding:"omitempty,max=100"`
	State      *string    `json:"state" binding:"omitempty,max=100"`
	PostalCode *string    `json:"postal_code" binding:"omitempty,max=20"`
	Notes      *string    `json:"notes"`
	CampaignID *uuid.UUID `json:"campaign_id"`
}

// Values converts the set fields into an update map
func (r UpdateHouseholdRequest) Values() map[string]any {
	values := map[string]any{}
	setString(values, "name", r.Name)
	setString(values, "email", r.Email)
	setString(values, "phone", r.Phone)
	setString(values, "address", r.Address)
	setString(values, "city", r.City)
	setString(values, "state", r.State)
	setString(values, "postal_code", r.PostalCode)
	setString(values, "notes", r.Notes)
	if r.CampaignID != nil {
		values["campaign_id"] = *r.CampaignID
	}
	return values
}

// HouseholdResponse is the wire representation of a household
type HouseholdResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	PostalCode  string     `json:"postal_code,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CampaignID  *uuid.UUID `json:"campaign_id,omitempty"`
	FileID      *uuid.UUID `json:"file_id,omitempty"`
	PersonCount int64      `json:"person_count,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toHouseholdResponse(h *models.Household) *HouseholdResponse {
	return &HouseholdResponse{
		ID:         h.ID,
		Name:       h.Name,
		Email:      h.Email,
		Phone:      h.Phone,
		Address:    h.Address,
		City:       h.City,
		State:      h.State,
		PostalCode: h.PostalCode,
		Notes:      h.Notes,
		CampaignID: h.CampaignID,
		FileID:     h.FileID,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
	}
}

func toHouseholdPage(page shared.Page[persistence.HouseholdListRow]) shared.Page[HouseholdResponse] {
	rows := make([]HouseholdResponse, len(page.Rows))
	for i, row := range page.Rows {
		resp := toHouseholdResponse(&row.Household)
		resp.PersonCount = row.PersonCount
		rows[i] = *resp
	}
	return shared.Page[HouseholdResponse]{Rows: rows, Count: page.Count}
}

// AutocompleteEntry is one type-ahead suggestion
type AutocompleteEntry struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// TagRequest names one tag to attach or detach
type TagRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
}

func setString(values map[string]any, key string, v *string) {
	if v != nil {
		values[key] = *v
	}
}
