package seed

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Counts sets how many rows to generate per CRM table. Junction and
// timeline tables are derived from these.
type Counts struct {
	Countries     int
	Segments      int
	Executives    int
	Consultants   int
	Products      int
	Accounts      int
	Opportunities int
	Engagements   int
	TimelineNotes int
}

func DefaultCounts() Counts {
	return Counts{
		Countries:     20,
		Segments:      10,
		Executives:    15,
		Consultants:   30,
		Products:      25,
		Accounts:      100,
		Opportunities: 250,
		Engagements:   80,
		TimelineNotes: 1250,
	}
}

type Country struct {
	ID        int
	Name      string
	Continent string
}

type Segment struct {
	ID   int
	Name string
}

type Executive struct {
	ID   int
	Name string
}

type Consultant struct {
	ID   int
	Name string
	Type string
}

type Product struct {
	ID    int
	Name  string
	Price float64
}

type Account struct {
	ID          int
	Name        string
	SegmentID   int
	ExecutiveID int
	CountryID   int
}

type Opportunity struct {
	ID            int
	Name          string
	AccountID     int
	Stage         string
	Type          string
	CreationDate  string
	ExpectedClose string
	ActualClose   string
}

type OpportunityProduct struct {
	ID            int
	OpportunityID int
	ProductID     int
	Quantity      int
}

type TimelineNote struct {
	ID            int
	LogDate       string
	OpportunityID int
	Comment       string
}

type Engagement struct {
	ID            int
	Name          string
	Stage         string
	Type          string
	StartDate     string
	ExpectedClose string
	ActualClose   string
}

type EngagementConsultant struct {
	ID           int
	EngagementID int
	ConsultantID int
	Role         string
}

type EngagementOpportunity struct {
	EngagementID  int
	OpportunityID int
}

type Document struct {
	ID              int
	Name            string
	Type            string
	StoragePath     string
	ExtractedText   string
	AssociatedID    int
	AssociatedTable string
}

// Dataset is a fully linked synthetic CRM universe, deterministic for a
// given seed.
type Dataset struct {
	Countries               []Country
	Segments                []Segment
	Executives              []Executive
	Consultants             []Consultant
	Products                []Product
	Accounts                []Account
	Opportunities           []Opportunity
	OpportunityProducts     []OpportunityProduct
	TimelineNotes           []TimelineNote
	Engagements             []Engagement
	EngagementConsultants   []EngagementConsultant
	EngagementOpportunities []EngagementOpportunity
	Documents               []Document
}

var (
	countryPool = []string{
		"United States", "Germany", "United Kingdom", "France", "Japan", "Brazil",
		"India", "Canada", "Australia", "Netherlands", "Sweden", "Spain", "Italy",
		"Mexico", "Singapore", "South Korea", "Switzerland", "Norway", "Poland",
		"Ireland", "Austria", "Denmark", "Finland", "Portugal", "Belgium",
	}
	continentByCountry = map[string]string{
		"United States": "North America", "Canada": "North America", "Mexico": "North America",
		"Brazil": "South America",
		"Japan": "Asia", "India": "Asia", "Singapore": "Asia", "South Korea": "Asia",
		"Australia": "Oceania",
	}
	segmentPool = []string{
		"Financial Services", "Healthcare", "Manufacturing", "Retail", "Energy",
		"Telecommunications", "Public Sector", "Media", "Logistics", "Education",
		"Insurance", "Hospitality",
	}
	firstNames = []string{
		"Ava", "Ben", "Clara", "Daniel", "Elena", "Felix", "Grace", "Henrik",
		"Ingrid", "Jonas", "Katya", "Liam", "Mira", "Noah", "Olivia", "Pavel",
		"Quinn", "Rosa", "Stefan", "Tara",
	}
	lastNames = []string{
		"Andersson", "Becker", "Costa", "Dubois", "Eriksen", "Fischer", "Garcia",
		"Hoffmann", "Ivanov", "Jensen", "Keller", "Lindqvist", "Moreau", "Novak",
		"Olsen", "Petrov", "Quist", "Rossi", "Schmidt", "Tanaka",
	}
	productWords = []string{
		"Insight", "Quantum", "Atlas", "Vertex", "Nimbus", "Beacon", "Forge",
		"Lattice", "Horizon", "Pulse", "Summit", "Orbit", "Prism", "Cascade",
	}
	companyWords = []string{
		"Northwind", "Globex", "Initech", "Umbra", "Vantage", "Helios", "Kestrel",
		"Marlow", "Oakline", "Pinnacle", "Quarry", "Redwood", "Solstice", "Trellis",
	}
	companySuffixes = []string{"Systems", "Industries", "Group", "Partners", "Holdings", "Labs", "Corp"}

	positivePhrases = []string{
		"Client is very enthusiastic", "Successful demo", "Strong positive feedback",
		"Budget is approved", "Moving forward", "Great rapport with the team",
	}
	negativePhrases = []string{
		"Concerns about pricing", "Decision-maker is unresponsive", "Competitor is involved",
		"Technical issues", "Scope creep is a problem", "Timeline is at risk",
	}
	neutralPhrases = []string{
		"Sent follow-up email", "Scheduled next meeting", "Internal review meeting",
		"Provided documentation", "Clarified requirements",
	}
)

// Generate builds a deterministic dataset for the seed. The same seed and
// counts always produce byte-identical data.
func Generate(seed int64, counts Counts) Dataset {
	rnd := rand.New(rand.NewSource(seed))
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	var ds Dataset

	for i := 0; i < counts.Countries && i < len(countryPool); i++ {
		name := countryPool[i]
		continent := continentByCountry[name]
		if continent == "" {
			continent = "Europe"
		}
		ds.Countries = append(ds.Countries, Country{ID: i + 1, Name: name, Continent: continent})
	}
	for i := 0; i < counts.Segments && i < len(segmentPool); i++ {
		ds.Segments = append(ds.Segments, Segment{ID: i + 1, Name: segmentPool[i]})
	}
	for i := 0; i < counts.Executives; i++ {
		ds.Executives = append(ds.Executives, Executive{ID: i + 1, Name: pickName(rnd)})
	}
	for i := 0; i < counts.Consultants; i++ {
		ds.Consultants = append(ds.Consultants, Consultant{
			ID:   i + 1,
			Name: pickName(rnd),
			Type: pickWeighted(rnd, []string{"Technical", "Strategic", "Functional", "Advisory"}, []int{40, 30, 20, 10}),
		})
	}
	for i := 0; i < counts.Products; i++ {
		price := math.Exp(9.5 + 0.8*rnd.NormFloat64())
		if price < 500 {
			price = 500
		}
		ds.Products = append(ds.Products, Product{
			ID:    i + 1,
			Name:  fmt.Sprintf("%s %s Platform", pickOne(rnd, productWords), pickOne(rnd, productWords)),
			Price: round2(price),
		})
	}
	for i := 0; i < counts.Accounts; i++ {
		ds.Accounts = append(ds.Accounts, Account{
			ID:          i + 1,
			Name:        fmt.Sprintf("%s %s", pickOne(rnd, companyWords), pickOne(rnd, companySuffixes)),
			SegmentID:   rnd.Intn(len(ds.Segments)) + 1,
			ExecutiveID: rnd.Intn(len(ds.Executives)) + 1,
			CountryID:   rnd.Intn(len(ds.Countries)) + 1,
		})
	}

	stages := []string{"Prospecting", "Qualification", "Proposal", "Negotiation", "Closed Won", "Closed Lost"}
	stageWeights := []int{10, 10, 20, 10, 40, 10}
	oppTypes := []string{"New Business", "Upsell", "Renewal"}
	oppTypeWeights := []int{60, 30, 10}
	for i := 0; i < counts.Opportunities; i++ {
		stage := pickWeighted(rnd, stages, stageWeights)
		oppType := pickWeighted(rnd, oppTypes, oppTypeWeights)
		created := now.AddDate(-2, 0, 0).Add(time.Duration(rnd.Int63n(int64(2 * 365 * 24 * time.Hour))))
		expected := created.AddDate(0, 0, 30+rnd.Intn(151))
		actual := ""
		if strings.HasPrefix(stage, "Closed") {
			actual = expected.AddDate(0, 0, rnd.Intn(41)-20).Format("2006-01-02")
		}
		ds.Opportunities = append(ds.Opportunities, Opportunity{
			ID:            i + 1,
			Name:          fmt.Sprintf("%s for %s", oppType, pickOne(rnd, productWords)),
			AccountID:     rnd.Intn(len(ds.Accounts)) + 1,
			Stage:         stage,
			Type:          oppType,
			CreationDate:  created.Format("2006-01-02"),
			ExpectedClose: expected.Format("2006-01-02"),
			ActualClose:   actual,
		})
	}

	lineID := 0
	for _, opp := range ds.Opportunities {
		for n := 0; n < 1+rnd.Intn(3); n++ {
			lineID++
			ds.OpportunityProducts = append(ds.OpportunityProducts, OpportunityProduct{
				ID:            lineID,
				OpportunityID: opp.ID,
				ProductID:     rnd.Intn(len(ds.Products)) + 1,
				Quantity:      1 + rnd.Intn(10),
			})
		}
	}

	for i := 0; i < counts.TimelineNotes; i++ {
		opp := ds.Opportunities[rnd.Intn(len(ds.Opportunities))]
		created, _ := time.Parse("2006-01-02", opp.CreationDate)
		logDate := created.Add(time.Duration(rnd.Int63n(int64(now.Sub(created)) + 1)))
		ds.TimelineNotes = append(ds.TimelineNotes, TimelineNote{
			ID:            i + 1,
			LogDate:       logDate.Format("2006-01-02"),
			OpportunityID: opp.ID,
			Comment:       pickComment(rnd),
		})
	}

	engStages := []string{"Discovery", "In Progress", "On Hold", "Completed", "Cancelled"}
	engStageWeights := []int{10, 40, 10, 35, 5}
	engTypes := []string{"Proof of Concept", "Implementation", "Advisory", "Training"}
	engTypeWeights := []int{30, 40, 20, 10}
	for i := 0; i < counts.Engagements; i++ {
		stage := pickWeighted(rnd, engStages, engStageWeights)
		start := now.AddDate(-1, 0, 0).Add(time.Duration(rnd.Int63n(int64(365 * 24 * time.Hour))))
		expected := start.AddDate(0, 0, 14+rnd.Intn(77))
		actual := ""
		if stage == "Completed" || stage == "Cancelled" {
			actual = expected.AddDate(0, 0, rnd.Intn(21)-10).Format("2006-01-02")
		}
		ds.Engagements = append(ds.Engagements, Engagement{
			ID:            i + 1,
			Name:          fmt.Sprintf("%s %s Initiative", pickOne(rnd, productWords), pickOne(rnd, companySuffixes)),
			Stage:         stage,
			Type:          pickWeighted(rnd, engTypes, engTypeWeights),
			StartDate:     start.Format("2006-01-02"),
			ExpectedClose: expected.Format("2006-01-02"),
			ActualClose:   actual,
		})
	}

	ecID := 0
	roles := []string{"Lead", "Architect", "Analyst", "Advisor"}
	for _, eng := range ds.Engagements {
		for n := 0; n < 1+rnd.Intn(4); n++ {
			ecID++
			ds.EngagementConsultants = append(ds.EngagementConsultants, EngagementConsultant{
				ID:           ecID,
				EngagementID: eng.ID,
				ConsultantID: rnd.Intn(len(ds.Consultants)) + 1,
				Role:         pickOne(rnd, roles),
			})
		}
		seen := map[int]bool{}
		for n := 0; n < 1+rnd.Intn(3); n++ {
			oppID := rnd.Intn(len(ds.Opportunities)) + 1
			if seen[oppID] {
				continue
			}
			seen[oppID] = true
			ds.EngagementOpportunities = append(ds.EngagementOpportunities, EngagementOpportunity{
				EngagementID:  eng.ID,
				OpportunityID: oppID,
			})
		}
	}

	docID := 0
	for _, account := range ds.Accounts {
		docID++
		name := fmt.Sprintf("APlan_%d.txt", account.ID)
		ds.Documents = append(ds.Documents, Document{
			ID:              docID,
			Name:            name,
			Type:            "Account Plan",
			StoragePath:     "documents/" + name,
			ExtractedText:   fmt.Sprintf("Account Plan for Account ID: %d", account.ID),
			AssociatedID:    account.ID,
			AssociatedTable: "Account",
		})
	}
	for _, eng := range ds.Engagements {
		var docType, prefix string
		switch eng.Type {
		case "Advisory":
			docType, prefix = "Business Case", "BusinessCase"
		case "Implementation":
			docType, prefix = "Solution Architecture", "SolArch"
		default:
			continue
		}
		docID++
		name := fmt.Sprintf("%s_%d.txt", prefix, eng.ID)
		ds.Documents = append(ds.Documents, Document{
			ID:              docID,
			Name:            name,
			Type:            docType,
			StoragePath:     "documents/" + name,
			ExtractedText:   fmt.Sprintf("%s for Engagement ID: %d", docType, eng.ID),
			AssociatedID:    eng.ID,
			AssociatedTable: "Engagement",
		})
	}

	return ds
}

func pickName(rnd *rand.Rand) string {
	return pickOne(rnd, firstNames) + " " + pickOne(rnd, lastNames)
}

func pickComment(rnd *rand.Rand) string {
	switch pickWeighted(rnd, []string{"positive", "negative", "neutral"}, []int{40, 20, 40}) {
	case "positive":
		return pickOne(rnd, positivePhrases) + ". Next steps agreed with the account team."
	case "negative":
		return pickOne(rnd, negativePhrases) + ". Flagged for review."
	default:
		return pickOne(rnd, neutralPhrases) + "."
	}
}

func pickOne(rnd *rand.Rand, values []string) string {
	return values[rnd.Intn(len(values))]
}

func pickWeighted(rnd *rand.Rand, values []string, weights []int) string {
	total := 0
	for _, weight := range weights {
		total += weight
	}
	p := rnd.Intn(total)
	for i, weight := range weights {
		if p < weight {
			return values[i]
		}
		p -= weight
	}
	return values[len(values)-1]
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
