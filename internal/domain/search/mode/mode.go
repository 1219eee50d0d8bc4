package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses lexical and vector signals via RRF.
	Hybrid Mode = "hybrid"
	// Lexical returns the lexical ranking directly, no fusion.
	Lexical Mode = "lexical"
	// Vector returns the vector ranking directly, no fusion.
	Vector Mode = "vector"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Lexical || m == Vector
}

// NeedsEmbedding reports whether the mode requires a resolved query vector.
func (m Mode) NeedsEmbedding() bool {
	return m == Hybrid || m == Vector
}
