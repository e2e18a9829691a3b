package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// DefaultYNABURL is the base URL of the YNAB v1 API.
const DefaultYNABURL = "https://api.ynab.com/v1"

// YNAB reads month categories from the YNAB API.
type YNAB struct {
	baseURL  string
	token    string
	budgetID string
	ids      map[string]string
	client   *http.Client
}

// NewYNAB creates a YNAB source. An empty baseURL selects DefaultYNABURL.
func NewYNAB(baseURL, token, budgetID string) *YNAB {
	if baseURL == "" {
		baseURL = DefaultYNABURL
	}
	return &YNAB{
		baseURL:  baseURL,
		token:    token,
		budgetID: budgetID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (y *YNAB) Name() string { return "ynab" }

// WithCategoryIDs pins YNAB category IDs to configured names. A pinned
// category is reported under its configured name even after it is renamed
// in YNAB, and takes precedence over an unpinned category of the same name.
func (y *YNAB) WithCategoryIDs(ids map[string]string) *YNAB {
	y.ids = ids
	return y
}

type ynabCategory struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Hidden   bool   `json:"hidden"`
	Deleted  bool   `json:"deleted"`
	Budgeted *int64 `json:"budgeted"`
	Activity int64  `json:"activity"`
	Balance  int64  `json:"balance"`
}

type ynabCategoriesResponse struct {
	Data struct {
		Categories []ynabCategory `json:"categories"`
	} `json:"data"`
}

// Snapshots fetches the categories of the month containing month. The
// month's assigned amount is the limit; goal targets describe savings goals
// and are ignored. YNAB reports outflows as negative activity, snapshots
// carry spend as a positive amount.
func (y *YNAB) Snapshots(ctx context.Context, month time.Time) (map[string]model.CategorySnapshot, error) {
	start, _ := model.PeriodBounds(month)
	url := fmt.Sprintf("%s/budgets/%s/months/%s/categories", y.baseURL, y.budgetID, start.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create ynab request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+y.token)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ynab categories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ynab returned status %d", resp.StatusCode)
	}

	var body ynabCategoriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode ynab categories: %w", err)
	}

	out := make(map[string]model.CategorySnapshot, len(body.Data.Categories))
	pinned := make(map[string]bool)
	for _, c := range body.Data.Categories {
		if c.Hidden || c.Deleted {
			continue
		}
		name, byID := y.ids[c.ID]
		if !byID {
			name = c.Name
			if pinned[name] {
				continue
			}
		}
		out[name] = model.CategorySnapshot{
			Name:             name,
			LimitAmount:      c.Budgeted,
			PeriodActivity:   -c.Activity,
			RemainingBalance: c.Balance,
		}
		if byID {
			pinned[name] = true
		}
	}
	return out, nil
}
