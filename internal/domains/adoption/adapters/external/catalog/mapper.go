package catalog

import (
	"strings"

	"github.com/Apurer/go-gin-dog-adoption/internal/clients/http/fetchdogs"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

// ToSearchParams converts committed criteria into the query of a first-page search.
func ToSearchParams(criteria domain.Criteria) fetchdogs.SearchParams {
	criteria = criteria.Normalize()
	params := fetchdogs.SearchParams{
		Breeds: append([]string(nil), criteria.Breeds...),
		AgeMin: cloneInt(criteria.MinAge),
		AgeMax: cloneInt(criteria.MaxAge),
	}
	size := criteria.PageSize
	params.Size = &size
	sort := criteria.Sort.String()
	params.Sort = &sort
	return params
}

// ToResultPage keeps the cursors exactly as the API returned them.
func ToResultPage(resp *fetchdogs.SearchResponse) domain.ResultPage {
	if resp == nil {
		return domain.ResultPage{}
	}
	page := domain.ResultPage{
		IDs:   append([]string{}, resp.ResultIDs...),
		Total: resp.Total,
	}
	if resp.Next != nil && strings.TrimSpace(*resp.Next) != "" {
		page.Cursor.Next = domain.Cursor(*resp.Next)
	}
	if resp.Prev != nil && strings.TrimSpace(*resp.Prev) != "" {
		page.Cursor.Prev = domain.Cursor(*resp.Prev)
	}
	return page
}

func ToDog(d fetchdogs.Dog) domain.Dog {
	return domain.Dog{
		ID:      d.ID,
		Img:     d.Img,
		Name:    d.Name,
		Age:     d.Age,
		ZipCode: d.ZipCode,
		Breed:   d.Breed,
	}
}

func ToDogs(dogs []fetchdogs.Dog) []domain.Dog {
	if len(dogs) == 0 {
		return nil
	}
	out := make([]domain.Dog, 0, len(dogs))
	for _, d := range dogs {
		out = append(out, ToDog(d))
	}
	return out
}

func ToLoginRequest(creds domain.Credentials) fetchdogs.LoginRequest {
	return fetchdogs.LoginRequest{Name: creds.Name, Email: creds.Email}
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
