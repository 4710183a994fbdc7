package notionsync

import (
	"time"

	"github.com/dvloznov/finance-analyzer/internal/domain"
	"github.com/jomei/notionapi"
)

// AnomalyToNotionProperties converts a flagged transaction to Notion properties.
// The anomalies database schema:
// Transaction ID (title), Date, Amount, Category, Vendor, Risk Score, Risk Level,
// Anomaly Score, Source Flagged, Notes, Synced At
func AnomalyToNotionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.ID,
					},
				},
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						tx.Date.Year(),
						tx.Date.Month(),
						tx.Date.Day(),
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Risk Score": notionapi.NumberProperty{
			Number: tx.RiskScore,
		},
		"Anomaly Score": notionapi.NumberProperty{
			Number: tx.AnomalyScore,
		},
		"Source Flagged": notionapi.CheckboxProperty{
			Checkbox: tx.Flagged,
		},
	}

	// Category
	if tx.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Category,
			},
		}
	}

	// Vendor
	if tx.Vendor != "" {
		props["Vendor"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Vendor,
					},
				},
			},
		}
	}

	// Risk Level
	if tx.RiskLevel != "" {
		props["Risk Level"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.RiskLevel),
			},
		}
	}

	// Notes
	if tx.Notes != "" {
		props["Notes"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Notes,
					},
				},
			},
		}
	}

	// Synced At
	now := time.Now()
	props["Synced At"] = notionapi.DateProperty{
		Date: &notionapi.DateObject{
			Start: (*notionapi.Date)(&now),
		},
	}

	return props
}
