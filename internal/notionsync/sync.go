package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-analyzer/internal/domain"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/jomei/notionapi"
)

const (
	// BatchSize defines the number of anomalies to process in a single batch
	BatchSize = 100
)

// SyncAnomalies syncs flagged transactions to a Notion database.
// The Transaction ID property is used to track pages for idempotency.
// This function:
// 1. Queries all existing Notion anomaly pages
// 2. Deletes stale pages (not in the current flagged set)
// 3. Creates pages for newly flagged transactions
func SyncAnomalies(ctx context.Context, anomalies []domain.Transaction, notionClient NotionService, notionDBID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("anomaly_count", len(anomalies)).
		Bool("dry_run", dryRun).
		Msg("Starting anomaly sync to Notion")

	// Build set of valid transaction IDs from the current run
	validTransactionIDs := make(map[string]bool)
	for _, tx := range anomalies {
		validTransactionIDs[tx.ID] = true
	}

	// Query all existing anomaly pages from Notion
	log.Info().Msg("Querying existing anomalies from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Build map of existing transaction IDs in Notion (for deduplication)
	existingTransactionIDs := make(map[string]bool)
	for _, page := range notionPages {
		txID := extractTransactionID(page)
		if txID != "" {
			existingTransactionIDs[txID] = true
		}
	}

	// Delete stale anomalies from Notion (those not in the valid set)
	var deleted int
	for _, page := range notionPages {
		txID := extractTransactionID(page)

		// Delete pages without Transaction ID (from old sync) or not in valid set
		if txID == "" || !validTransactionIDs[txID] {
			if dryRun {
				log.Info().
					Str("transaction_id", txID).
					Str("page_id", string(page.ID)).
					Msg("[DRY RUN] Would delete stale Notion page")
				deleted++
			} else {
				if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
					log.Warn().
						Err(err).
						Str("transaction_id", txID).
						Str("page_id", string(page.ID)).
						Msg("Failed to delete stale Notion page")
					continue
				}
				log.Info().
					Str("transaction_id", txID).
					Str("page_id", string(page.ID)).
					Msg("Deleted stale Notion page")
				deleted++
			}
		}
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Deleted stale anomalies from Notion")
	}

	// Process anomalies in batches
	var created, skipped int
	for i := 0; i < len(anomalies); i += BatchSize {
		end := i + BatchSize
		if end > len(anomalies) {
			end = len(anomalies)
		}

		batch := anomalies[i:end]
		log.Info().
			Int("batch_start", i).
			Int("batch_end", end).
			Int("batch_size", len(batch)).
			Msg("Processing batch")

		for _, tx := range batch {
			// Skip if already exists in Notion
			if existingTransactionIDs[tx.ID] {
				skipped++
				continue
			}

			if dryRun {
				log.Info().
					Str("transaction_id", tx.ID).
					Msg("[DRY RUN] Would create new Notion page")
				created++
				continue
			}

			// Convert anomaly to Notion properties
			props := AnomalyToNotionProperties(tx)

			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", tx.ID).
					Msg("Failed to create Notion page")
				// Continue processing other anomalies
				continue
			}
			log.Info().
				Str("transaction_id", tx.ID).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			created++
		}
	}

	log.Info().
		Int("deleted", deleted).
		Int("created", created).
		Int("skipped", skipped).
		Int("total", len(anomalies)).
		Msg("Anomaly sync completed")

	return nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties["Transaction ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
