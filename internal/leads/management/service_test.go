package management

import (
	"context"
	"testing"

	"imob_crm_backend/internal/events"
	"imob_crm_backend/internal/leads/domain"
	"imob_crm_backend/internal/leads/repository"
	"imob_crm_backend/internal/leads/transport"
	"imob_crm_backend/platform/apperr"
	"imob_crm_backend/platform/phone"

	"github.com/google/uuid"
)

type fakeRepo struct {
	created    []repository.CreateLeadParams
	updated    []repository.UpdateLeadParams
	listParams []repository.ListParams
	leads      map[uuid.UUID]domain.Lead
	total      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]domain.Lead)}
}

func (f *fakeRepo) GetLead(_ context.Context, id uuid.UUID, accountID uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.AccountID != accountID {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) ListLeads(_ context.Context, params repository.ListParams) ([]domain.Lead, int, error) {
	f.listParams = append(f.listParams, params)
	out := make([]domain.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, f.total, nil
}

func (f *fakeRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (domain.Lead, error) {
	f.created = append(f.created, params)
	lead := domain.NewInboundLead(params.AccountID, params.Name, params.Source)
	lead.ID = uuid.New()
	lead.Email = params.Email
	lead.Phone = params.Phone
	lead.Notes = params.Notes
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) UpdateLeadDetails(ctx context.Context, id uuid.UUID, accountID uuid.UUID, params repository.UpdateLeadParams) (domain.Lead, error) {
	f.updated = append(f.updated, params)
	return f.GetLead(ctx, id, accountID)
}

func (f *fakeRepo) DeleteLead(_ context.Context, id uuid.UUID, _ uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeRepo) ListTurns(_ context.Context, _ uuid.UUID, _ uuid.UUID) ([]domain.Turn, error) {
	return nil, nil
}

type capturingBus struct {
	events []events.Event
}

func (b *capturingBus) Publish(_ context.Context, event events.Event) {
	b.events = append(b.events, event)
}

func (b *capturingBus) PublishSync(_ context.Context, event events.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *capturingBus) Subscribe(string, events.Handler) {}

func TestCreateStartsInAutomatedAttendance(t *testing.T) {
	repo := newFakeRepo()
	bus := &capturingBus{}
	svc := New(repo, bus, phone.NewNormalizer("BR"))
	accountID := uuid.New()

	resp, err := svc.Create(context.Background(), accountID, transport.CreateLeadRequest{
		Name:   "  <b>Joana</b> ",
		Email:  "Joana@Example.com",
		Phone:  "(11) 98765-4321",
		Source: domain.SourceInstagram,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	params := repo.created[0]
	if params.Name != "Joana" {
		t.Fatalf("expected sanitized name, got %q", params.Name)
	}
	if params.Email == nil || *params.Email != "joana@example.com" {
		t.Fatalf("expected lower-cased email, got %v", params.Email)
	}
	if params.Phone == nil || *params.Phone != "+5511987654321" {
		t.Fatalf("expected E.164 phone, got %v", params.Phone)
	}
	if params.Temperature != domain.TemperatureCold || params.Score != 0 {
		t.Fatalf("expected cold/0, got %s/%d", params.Temperature, params.Score)
	}
	if resp.Mode != domain.ModeAIActive || !resp.AIActive || resp.RequestedHuman {
		t.Fatalf("expected AI_ACTIVE response, got %+v", resp)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	created, ok := bus.events[0].(events.LeadCreated)
	if !ok || created.LeadID != resp.ID || created.ViaWebhook {
		t.Fatalf("unexpected event %+v", bus.events[0])
	}
}

func TestCreateFromWebhookMarksEvent(t *testing.T) {
	bus := &capturingBus{}
	svc := New(newFakeRepo(), bus, phone.NewNormalizer("BR"))

	if _, err := svc.CreateFromWebhook(context.Background(), uuid.New(), transport.CreateLeadRequest{Name: "Rui", Source: domain.SourceOLX}); err != nil {
		t.Fatalf("CreateFromWebhook: %v", err)
	}

	created := bus.events[0].(events.LeadCreated)
	if !created.ViaWebhook || created.Source != "olx" {
		t.Fatalf("unexpected event %+v", created)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  transport.CreateLeadRequest
	}{
		{name: "blank name", req: transport.CreateLeadRequest{Name: "<p> </p>", Source: domain.SourceSite}},
		{name: "unknown source", req: transport.CreateLeadRequest{Name: "Ana", Source: domain.Source("tiktok")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := New(repo, &capturingBus{}, phone.NewNormalizer("BR"))

			_, err := svc.Create(context.Background(), uuid.New(), tt.req)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(repo.created) != 0 {
				t.Fatal("invalid input must not reach the repository")
			}
		})
	}
}

func TestUpdateRejectsBlankName(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &capturingBus{}, phone.NewNormalizer("BR"))
	blank := "   "

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), transport.UpdateLeadRequest{Name: &blank})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetAndDeleteMapNotFound(t *testing.T) {
	svc := New(newFakeRepo(), &capturingBus{}, phone.NewNormalizer("BR"))

	if _, err := svc.GetByID(context.Background(), uuid.New(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(context.Background(), uuid.New(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.ListMessages(context.Background(), uuid.New(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPaging(t *testing.T) {
	tests := []struct {
		name        string
		req         transport.ListLeadsRequest
		total       int
		wantOffset  int
		wantLimit   int
		wantPages   int
		wantPage    int
		wantPerPage int
	}{
		{name: "defaults", req: transport.ListLeadsRequest{}, total: 45, wantOffset: 0, wantLimit: 20, wantPages: 3, wantPage: 1, wantPerPage: 20},
		{name: "third page", req: transport.ListLeadsRequest{Page: 3, PageSize: 10}, total: 25, wantOffset: 20, wantLimit: 10, wantPages: 3, wantPage: 3, wantPerPage: 10},
		{name: "capped size", req: transport.ListLeadsRequest{PageSize: 500}, total: 0, wantOffset: 0, wantLimit: 100, wantPages: 0, wantPage: 1, wantPerPage: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			repo.total = tt.total
			svc := New(repo, &capturingBus{}, phone.NewNormalizer("BR"))

			resp, err := svc.List(context.Background(), uuid.New(), tt.req)
			if err != nil {
				t.Fatalf("List: %v", err)
			}

			params := repo.listParams[0]
			if params.Offset != tt.wantOffset || params.Limit != tt.wantLimit {
				t.Fatalf("expected offset %d limit %d, got %d %d", tt.wantOffset, tt.wantLimit, params.Offset, params.Limit)
			}
			if resp.TotalPages != tt.wantPages || resp.Page != tt.wantPage || resp.PageSize != tt.wantPerPage {
				t.Fatalf("unexpected paging %+v", resp)
			}
		})
	}
}
