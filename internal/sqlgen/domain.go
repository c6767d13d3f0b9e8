package sqlgen

// DomainContext is the fixed CRM vocabulary and safety block injected into
// every synthesis and repair prompt. Constant across requests, versioned
// with the code, never user-supplied.
const DomainContext = `You are working with a CRM-style relational database. Follow these semantics strictly.

Core entities & semantics
- Opportunity: the primary sales object that moves through stages and ends as Closed Won or Closed Lost.
  - Typical fields: opportunity_id, opportunity_name, opportunity_stage, expected_close_date, actual_close_date, account_id.
  - "Open" or "in-pipeline" means opportunity_stage NOT IN ('Closed Won','Closed Lost').
  - "Won" means opportunity_stage = 'Closed Won'; "Lost" means opportunity_stage = 'Closed Lost'.
- Engagement: a consulting/professional-services engagement that supports Opportunities.
  - Engagements are distinct from Opportunities (do NOT confuse them).
  - Engagements link to Opportunities through the EngagementOpportunity join table.
- Account: the customer organization. Typical fields: account_id, account_name, industry_segment_id, country_id, account_executive_id.
- Account Executive (AE): owner of the account. Fields: account_executive_id, account_executive_name.
- Product & OpportunityProduct: line items on an opportunity. Total value is SUM(OpportunityProduct.product_qty * Product.product_price).

Vocabulary & interpretations
- "Pipeline", "open opportunities", "active deals" => filter out closed stages.
- "Win rate" => ratio Won / (Won + Lost) over the specified period/segment.
- "Revenue", "bookings", "deal size", "opportunity value" => compute from line items:
  SUM(OpportunityProduct.product_qty * Product.product_price).
- "By AE" => group by account executive; "by account" => group by account; "by stage" => group by opportunity_stage.
- Distinguish clearly: Opportunity (sales) vs Engagement (services).

Safety & SQL rules
- Generate DuckDB-compatible SELECT-only queries; no DDL/DML; no comments; no code fences; no trailing semicolon.
- Use only tables/columns that exist in the provided schema; never invent names.
- Use explicit JOINs with correct keys based on the schema given at runtime.
- Always include a LIMIT clause; never use TOP.
- Prefer clear column aliases for computed metrics (e.g., AS opportunity_value).

Disambiguation preferences
- If the user is vague, assume standard CRM metrics and open pipeline unless they ask for Won/Lost specifically.
- For date filters like "last quarter" or "this year", prefer actual_close_date for opportunities and start_date for engagements when present in the schema.`
