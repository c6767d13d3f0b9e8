package seed

import (
	"context"
	"database/sql"
	"fmt"
)

// Apply loads the dataset into the CRM store inside one transaction.
// Existing rows are cleared first so reseeding is idempotent.
func Apply(ctx context.Context, db *sql.DB, ds Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Children first so FK references never dangle mid-delete.
	clearOrder := []string{
		"Document", "EngagementOpportunity", "EngagementConsultant", "OpportunityTimeline",
		"OpportunityProduct", "Engagement", "Opportunity", "Product", "Consultant",
		"Account", "AccountExecutive", "IndustrySegment", "Country",
	}
	for _, table := range clearOrder {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}

	for _, row := range ds.Countries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Country (country_id, country_name, continent) VALUES (?, ?, ?)`,
			row.ID, row.Name, row.Continent); err != nil {
			return fmt.Errorf("insert country: %w", err)
		}
	}
	for _, row := range ds.Segments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO IndustrySegment (industry_segment_id, industry_segment_name) VALUES (?, ?)`,
			row.ID, row.Name); err != nil {
			return fmt.Errorf("insert industry segment: %w", err)
		}
	}
	for _, row := range ds.Executives {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO AccountExecutive (account_executive_id, account_executive_name) VALUES (?, ?)`,
			row.ID, row.Name); err != nil {
			return fmt.Errorf("insert account executive: %w", err)
		}
	}
	for _, row := range ds.Consultants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Consultant (consultant_id, consultant_name, consultant_type) VALUES (?, ?, ?)`,
			row.ID, row.Name, row.Type); err != nil {
			return fmt.Errorf("insert consultant: %w", err)
		}
	}
	for _, row := range ds.Products {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Product (product_id, product_name, product_price) VALUES (?, ?, ?)`,
			row.ID, row.Name, row.Price); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	}
	for _, row := range ds.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Account (account_id, account_name, industry_segment_id, account_executive_id, country_id)
VALUES (?, ?, ?, ?, ?)`,
			row.ID, row.Name, row.SegmentID, row.ExecutiveID, row.CountryID); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
	}
	for _, row := range ds.Opportunities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Opportunity (opportunity_id, opportunity_name, account_id, opportunity_stage, opportunity_type, creation_date, expected_close_date, actual_close_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.Name, row.AccountID, row.Stage, row.Type,
			row.CreationDate, row.ExpectedClose, nullableDate(row.ActualClose)); err != nil {
			return fmt.Errorf("insert opportunity: %w", err)
		}
	}
	for _, row := range ds.OpportunityProducts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO OpportunityProduct (opportunityproduct_id, opportunity_id, product_id, product_qty) VALUES (?, ?, ?, ?)`,
			row.ID, row.OpportunityID, row.ProductID, row.Quantity); err != nil {
			return fmt.Errorf("insert opportunity product: %w", err)
		}
	}
	for _, row := range ds.TimelineNotes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO OpportunityTimeline (opportunitytimeline_id, log_date, opportunity_id, comment, sentiment_score)
VALUES (?, ?, ?, ?, NULL)`,
			row.ID, row.LogDate, row.OpportunityID, row.Comment); err != nil {
			return fmt.Errorf("insert timeline note: %w", err)
		}
	}
	for _, row := range ds.Engagements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Engagement (engagement_id, engagement_name, engagement_stage, engagement_type, start_date, expected_close_date, actual_close_date)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.Name, row.Stage, row.Type,
			row.StartDate, row.ExpectedClose, nullableDate(row.ActualClose)); err != nil {
			return fmt.Errorf("insert engagement: %w", err)
		}
	}
	for _, row := range ds.EngagementConsultants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO EngagementConsultant (engagementconsultant_id, engagement_id, consultant_id, consultant_role) VALUES (?, ?, ?, ?)`,
			row.ID, row.EngagementID, row.ConsultantID, row.Role); err != nil {
			return fmt.Errorf("insert engagement consultant: %w", err)
		}
	}
	for _, row := range ds.EngagementOpportunities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO EngagementOpportunity (engagement_id, opportunity_id) VALUES (?, ?)`,
			row.EngagementID, row.OpportunityID); err != nil {
			return fmt.Errorf("insert engagement opportunity: %w", err)
		}
	}
	for _, row := range ds.Documents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Document (document_id, document_name, document_type, storage_path, extracted_text, associated_record_id, associated_table)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.Name, row.Type, row.StoragePath, row.ExtractedText,
			row.AssociatedID, row.AssociatedTable); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func nullableDate(value string) any {
	if value == "" {
		return nil
	}
	return value
}
