package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

type workspaceRecord struct {
	SessionID string         `gorm:"primaryKey;column:session_id;size:64"`
	Name      string         `gorm:"column:name"`
	Email     string         `gorm:"column:email"`
	Cookies   []cookieRecord `gorm:"column:cookies;type:jsonb;serializer:json"`
	Working   criteriaRecord `gorm:"column:working_criteria;type:jsonb;serializer:json"`
	Committed criteriaRecord `gorm:"column:committed_criteria;type:jsonb;serializer:json"`
	ResultIDs pq.StringArray `gorm:"column:result_ids;type:text[]"`
	Total     int            `gorm:"column:result_total"`
	NextPage  string         `gorm:"column:next_cursor"`
	PrevPage  string         `gorm:"column:prev_cursor"`
	Dogs      []dogRecord    `gorm:"column:dogs;type:jsonb;serializer:json"`
	Selection pq.StringArray `gorm:"column:selection;type:text[]"`
	Match     *dogRecord     `gorm:"column:match;type:jsonb;serializer:json"`
	Route     string         `gorm:"column:route;type:varchar(32)"`
	ExpiresAt time.Time      `gorm:"column:expires_at;index"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (workspaceRecord) TableName() string { return "workspace_snapshots" }

type cookieRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type criteriaRecord struct {
	Breeds   []string `json:"breeds,omitempty"`
	MinAge   *int     `json:"minAge,omitempty"`
	MaxAge   *int     `json:"maxAge,omitempty"`
	Sort     string   `json:"sort"`
	PageSize int      `json:"pageSize"`
}

type dogRecord struct {
	ID      string `json:"id"`
	Img     string `json:"img"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	ZipCode string `json:"zipCode"`
	Breed   string `json:"breed"`
}

func toRecord(s domain.Snapshot) workspaceRecord {
	rec := workspaceRecord{
		SessionID: s.SessionID,
		Name:      s.Profile.Name,
		Email:     s.Profile.Email,
		Working:   toCriteriaRecord(s.State.Working),
		Committed: toCriteriaRecord(s.State.Committed),
		ResultIDs: pq.StringArray(append([]string{}, s.State.Page.IDs...)),
		Total:     s.State.Page.Total,
		NextPage:  string(s.State.Page.Cursor.Next),
		PrevPage:  string(s.State.Page.Cursor.Prev),
		Selection: pq.StringArray(s.State.Selection.IDs()),
		Route:     string(s.State.Route),
		ExpiresAt: s.ExpiresAt,
	}
	for _, c := range s.Credential.Cookies {
		rec.Cookies = append(rec.Cookies, cookieRecord{Name: c.Name, Value: c.Value})
	}
	for _, d := range s.State.Dogs {
		rec.Dogs = append(rec.Dogs, toDogRecord(d))
	}
	if s.State.Match != nil {
		m := toDogRecord(*s.State.Match)
		rec.Match = &m
	}
	if rec.Selection == nil {
		rec.Selection = pq.StringArray{}
	}
	return rec
}

func (r workspaceRecord) toDomain() domain.Snapshot {
	state := domain.NewState()
	state.Working = r.Working.toDomain()
	state.Committed = r.Committed.toDomain()
	state.Page = domain.ResultPage{
		IDs:    append([]string(nil), r.ResultIDs...),
		Total:  r.Total,
		Cursor: domain.PageCursor{Next: domain.Cursor(r.NextPage), Prev: domain.Cursor(r.PrevPage)},
	}
	for _, d := range r.Dogs {
		state.Dogs = append(state.Dogs, d.toDomain())
	}
	state.Selection = domain.NewSelectionSet(r.Selection...)
	if r.Match != nil {
		m := r.Match.toDomain()
		state.Match = &m
	}
	if r.Route != "" {
		state.Route = domain.Route(r.Route)
	}
	snapshot := domain.Snapshot{
		SessionID: r.SessionID,
		Profile:   domain.Credentials{Name: r.Name, Email: r.Email},
		State:     state,
		ExpiresAt: r.ExpiresAt,
	}
	for _, c := range r.Cookies {
		snapshot.Credential.Cookies = append(snapshot.Credential.Cookies, domain.SessionCookie{Name: c.Name, Value: c.Value})
	}
	return snapshot
}

func toCriteriaRecord(c domain.Criteria) criteriaRecord {
	return criteriaRecord{
		Breeds:   append([]string(nil), c.Breeds...),
		MinAge:   c.MinAge,
		MaxAge:   c.MaxAge,
		Sort:     c.Sort.String(),
		PageSize: c.PageSize,
	}
}

func (r criteriaRecord) toDomain() domain.Criteria {
	c := domain.Criteria{
		Breeds:   append([]string(nil), r.Breeds...),
		MinAge:   r.MinAge,
		MaxAge:   r.MaxAge,
		PageSize: r.PageSize,
	}
	if key, err := domain.ParseSortKey(r.Sort); err == nil {
		c.Sort = key
	}
	return c
}

func toDogRecord(d domain.Dog) dogRecord {
	return dogRecord{ID: d.ID, Img: d.Img, Name: d.Name, Age: d.Age, ZipCode: d.ZipCode, Breed: d.Breed}
}

func (r dogRecord) toDomain() domain.Dog {
	return domain.Dog{ID: r.ID, Img: r.Img, Name: r.Name, Age: r.Age, ZipCode: r.ZipCode, Breed: r.Breed}
}
