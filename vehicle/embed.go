package vehicle

type embed struct {
	Title_       string   `mapstructure:"title"`
	Identifiers_ []string `mapstructure:"identifiers"`
}

// Title implements the api.Vehicle interface
func (v *embed) Title() string {
	return v.Title_
}

// Identifiers implements the api.Vehicle interface
func (v *embed) Identifiers() []string {
	return v.Identifiers_
}
