package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// QueryID identifies a single query execution
type QueryID struct {
	value string
}

// NewQueryID creates a new random QueryID
func NewQueryID() QueryID {
	return QueryID{value: uuid.New().String()}
}

// NewQueryIDFromString creates a QueryID from an existing string
func NewQueryIDFromString(id string) (QueryID, error) {
	if id == "" {
		return QueryID{}, errors.New("query ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return QueryID{}, errors.New("query ID must be a valid UUID")
	}
	return QueryID{value: id}, nil
}

// String returns the string representation of the QueryID
func (id QueryID) String() string {
	return id.value
}

// IsZero checks if the QueryID is the zero value
func (id QueryID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id QueryID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *QueryID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("QueryID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
