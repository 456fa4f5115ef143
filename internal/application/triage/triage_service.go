package triage

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestMessageRequest is the input for recording an inbound message
type IngestMessageRequest struct {
	FromAddress string     `json:"from_address" binding:"required,email"`
	Subject     string     `json:"subject" binding:"max=500"`
	Body        string     `json:"body"`
	ReceivedAt  *time.Time `json:"received_at"`
}

// AssignRequest names the user a message is assigned to
type AssignRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
}

// LinkPersonRequest names the contact a message belongs to
type LinkPersonRequest struct {
	PersonID uuid.UUID `json:"person_id" binding:"required"`
}

// MessageResponse is the wire representation of a triage message
type MessageResponse struct {
	ID          uuid.UUID  `json:"id"`
	FromAddress string     `json:"from_address"`
	Subject     string     `json:"subject,omitempty"`
	Body        string     `json:"body,omitempty"`
	Status      string     `json:"status"`
	ReceivedAt  time.Time  `json:"received_at"`
	PersonID    *uuid.UUID `json:"person_id,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TriageService handles the inbound message queue
type TriageService struct {
	messages *persistence.EmailMessageRepository
	persons  *persistence.PersonRepository
	logger   *zap.Logger
}

// NewTriageService creates a new TriageService
func NewTriageService(
	messages *persistence.EmailMessageRepository,
	persons *persistence.PersonRepository,
	logger *zap.Logger,
) *TriageService {
	return &TriageService{messages: messages, persons: persons, logger: logger}
}

// Ingest records an inbound message and matches the sender against known
// contacts by email. An unmatched message simply stays unlinked.
func (s *TriageService) Ingest(ctx context.Context, actor shared.Actor, req IngestMessageRequest) (*MessageResponse, error) {
	address := strings.ToLower(strings.TrimSpace(req.FromAddress))

	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	message := models.EmailMessage{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		FromAddress:      address,
		Subject:          req.Subject,
		Body:             req.Body,
		Status:           models.EmailStatusOpen,
		ReceivedAt:       receivedAt,
	}

	person, err := s.persons.GetOneBy(ctx, actor.TenantID, "email", address)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to match sender")
	}
	if person != nil {
		message.PersonID = &person.ID
	}

	if err := s.messages.Add(ctx, &message); err != nil {
		return nil, shared.WrapInternal(err, "Failed to record message")
	}
	return toMessageResponse(&message), nil
}

// Assign routes an open message to a user
func (s *TriageService) Assign(ctx context.Context, actor shared.Actor, id uuid.UUID, req AssignRequest) (*MessageResponse, error) {
	message, err := s.messages.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load message")
	}
	if message == nil {
		return nil, shared.NewNotFound("Message not found")
	}
	if message.Status == models.EmailStatusResolved {
		return nil, shared.NewPreconditionFailed("Message is already resolved")
	}

	updated, err := s.messages.Update(ctx, actor.TenantID, id, map[string]any{
		"assignee_id":  req.AssigneeID,
		"status":       models.EmailStatusAssigned,
		"updatedby_id": actor.ActorRef(),
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to assign message")
	}
	if updated == nil {
		return nil, shared.NewNotFound("Message not found")
	}
	return toMessageResponse(updated), nil
}

// Resolve closes a message. Resolving twice is a no-op.
func (s *TriageService) Resolve(ctx context.Context, actor shared.Actor, id uuid.UUID) (*MessageResponse, error) {
	updated, err := s.messages.Update(ctx, actor.TenantID, id, map[string]any{
		"status":       models.EmailStatusResolved,
		"updatedby_id": actor.ActorRef(),
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to resolve message")
	}
	if updated == nil {
		return nil, shared.NewNotFound("Message not found")
	}
	return toMessageResponse(updated), nil
}

// LinkPerson attaches a message to a contact when the automatic match failed
// or picked the wrong one.
func (s *TriageService) LinkPerson(ctx context.Context, actor shared.Actor, id uuid.UUID, req LinkPersonRequest) (*MessageResponse, error) {
	person, err := s.persons.GetByID(ctx, actor.TenantID, req.PersonID)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to resolve person")
	}
	if person == nil {
		return nil, shared.NewBadRequest("Person does not exist")
	}

	updated, err := s.messages.Update(ctx, actor.TenantID, id, map[string]any{
		"person_id":    req.PersonID,
		"updatedby_id": actor.ActorRef(),
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to link person")
	}
	if updated == nil {
		return nil, shared.NewNotFound("Message not found")
	}
	return toMessageResponse(updated), nil
}

// Get fetches one message
func (s *TriageService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*MessageResponse, error) {
	message, err := s.messages.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load message")
	}
	if message == nil {
		return nil, shared.NewNotFound("Message not found")
	}
	return toMessageResponse(message), nil
}

// GetPage runs the triage grid query for one descriptor
func (s *TriageService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[MessageResponse], error) {
	page, err := s.messages.GetPage(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[MessageResponse]{Rows: []MessageResponse{}}, shared.WrapInternal(err, "Failed to query messages")
	}
	rows := make([]MessageResponse, len(page.Rows))
	for i := range page.Rows {
		rows[i] = *toMessageResponse(&page.Rows[i])
	}
	return shared.Page[MessageResponse]{Rows: rows, Count: page.Count}, nil
}

func toMessageResponse(message *models.EmailMessage) *MessageResponse {
	return &MessageResponse{
		ID:          message.ID,
		FromAddress: message.FromAddress,
		Subject:     message.Subject,
		Body:        message.Body,
		Status:      message.Status,
		ReceivedAt:  message.ReceivedAt,
		PersonID:    message.PersonID,
		AssigneeID:  message.AssigneeID,
		CreatedAt:   message.CreatedAt,
		UpdatedAt:   message.UpdatedAt,
	}
}
