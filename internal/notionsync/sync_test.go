package notionsync

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/domain"
	"github.com/jomei/notionapi"
)

type mockNotionService struct {
	pages []notionapi.Page

	createdIDs []string
	deletedIDs []string
}

func (m *mockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	var txID string
	if prop, ok := properties["Transaction ID"]; ok {
		if title, ok := prop.(notionapi.TitleProperty); ok && len(title.Title) > 0 {
			txID = title.Title[0].Text.Content
		}
	}
	m.createdIDs = append(m.createdIDs, txID)
	return &notionapi.Page{ID: notionapi.ObjectID("page-" + txID)}, nil
}

func (m *mockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (m *mockNotionService) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{
		Results: m.pages,
		HasMore: false,
	}, nil
}

func (m *mockNotionService) DeletePage(ctx context.Context, pageID string) error {
	m.deletedIDs = append(m.deletedIDs, pageID)
	return nil
}

func notionPageForTransaction(txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID("page-" + txID),
		Properties: notionapi.Properties{
			"Transaction ID": &notionapi.TitleProperty{
				Title: []notionapi.RichText{
					{PlainText: txID},
				},
			},
		},
	}
}

func anomalyFixture(id string) domain.Transaction {
	return domain.Transaction{
		ID:             id,
		Date:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:         -250.00,
		Category:       "Travel",
		Vendor:         "Acme Air",
		RiskScore:      82,
		RiskLevel:      domain.RiskHigh,
		AnomalyScore:   0.71,
		AnomalyFlagged: true,
		Notes:          "chargeback pending",
	}
}

func TestSyncAnomalies_CreatesNewPages(t *testing.T) {
	mock := &mockNotionService{}
	anomalies := []domain.Transaction{anomalyFixture("TX-1"), anomalyFixture("TX-2")}

	if err := SyncAnomalies(context.Background(), anomalies, mock, "db-1", false); err != nil {
		t.Fatalf("SyncAnomalies failed: %v", err)
	}

	if len(mock.createdIDs) != 2 {
		t.Fatalf("created %d pages, want 2", len(mock.createdIDs))
	}
	if mock.createdIDs[0] != "TX-1" || mock.createdIDs[1] != "TX-2" {
		t.Errorf("created IDs = %v", mock.createdIDs)
	}
	if len(mock.deletedIDs) != 0 {
		t.Errorf("deleted %d pages, want 0", len(mock.deletedIDs))
	}
}

func TestSyncAnomalies_SkipsExistingAndDeletesStale(t *testing.T) {
	mock := &mockNotionService{
		pages: []notionapi.Page{
			notionPageForTransaction("TX-1"),
			notionPageForTransaction("TX-OLD"),
		},
	}
	anomalies := []domain.Transaction{anomalyFixture("TX-1"), anomalyFixture("TX-2")}

	if err := SyncAnomalies(context.Background(), anomalies, mock, "db-1", false); err != nil {
		t.Fatalf("SyncAnomalies failed: %v", err)
	}

	// TX-1 already exists, only TX-2 gets created.
	if len(mock.createdIDs) != 1 || mock.createdIDs[0] != "TX-2" {
		t.Errorf("created IDs = %v, want [TX-2]", mock.createdIDs)
	}
	// TX-OLD is no longer flagged and gets archived.
	if len(mock.deletedIDs) != 1 || mock.deletedIDs[0] != "page-TX-OLD" {
		t.Errorf("deleted IDs = %v, want [page-TX-OLD]", mock.deletedIDs)
	}
}

func TestSyncAnomalies_DryRun(t *testing.T) {
	mock := &mockNotionService{
		pages: []notionapi.Page{notionPageForTransaction("TX-OLD")},
	}
	anomalies := []domain.Transaction{anomalyFixture("TX-1")}

	if err := SyncAnomalies(context.Background(), anomalies, mock, "db-1", true); err != nil {
		t.Fatalf("SyncAnomalies failed: %v", err)
	}

	if len(mock.createdIDs) != 0 {
		t.Errorf("dry run created %d pages, want 0", len(mock.createdIDs))
	}
	if len(mock.deletedIDs) != 0 {
		t.Errorf("dry run deleted %d pages, want 0", len(mock.deletedIDs))
	}
}

func TestAnomalyToNotionProperties(t *testing.T) {
	tx := anomalyFixture("TX-9")

	props := AnomalyToNotionProperties(tx)

	title, ok := props["Transaction ID"].(notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 || title.Title[0].Text.Content != "TX-9" {
		t.Errorf("Transaction ID property = %+v", props["Transaction ID"])
	}
	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != -250.00 {
		t.Errorf("Amount property = %+v", props["Amount"])
	}
	level, ok := props["Risk Level"].(notionapi.SelectProperty)
	if !ok || level.Select.Name != "High" {
		t.Errorf("Risk Level property = %+v", props["Risk Level"])
	}
	if _, ok := props["Notes"]; !ok {
		t.Error("Notes property missing")
	}

	tx.Notes = ""
	tx.Vendor = ""
	props = AnomalyToNotionProperties(tx)
	if _, ok := props["Notes"]; ok {
		t.Error("Notes property present for empty notes")
	}
	if _, ok := props["Vendor"]; ok {
		t.Error("Vendor property present for empty vendor")
	}
}
