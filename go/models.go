package adoptionserver

// LoginRequest is the login form.
type LoginRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// FiltersRequest replaces the working search criteria. Size is the pending page size.
type FiltersRequest struct {
	Breeds []string `json:"breeds" binding:"omitempty,dive,max=128"`
	AgeMin *int     `json:"ageMin" binding:"omitempty,min=0,max=99"`
	AgeMax *int     `json:"ageMax" binding:"omitempty,min=0,max=99"`
	Sort   string   `json:"sort" binding:"omitempty,oneof=breed:asc breed:desc age:asc age:desc"`
	Size   int      `json:"size" binding:"omitempty,min=1,max=100"`
}

// SelectionRequest marks or unmarks one dog.
type SelectionRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

// BreedsResponse lists every breed for the picker.
type BreedsResponse struct {
	Breeds []string `json:"breeds"`
}
