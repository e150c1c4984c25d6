package layout

import "github.com/xelth-com/eckshelf/internal/apperrors"

func errInvalidShelf() error {
	return apperrors.NotFound("Invalid shelf ID")
}

// ListShelves returns the shelves in order
func (s *Store) ListShelves() []any {
	shelves := s.Load().Shelves()
	if shelves == nil {
		return []any{}
	}
	return shelves
}

// AddShelf appends a shelf and returns its index
func (s *Store) AddShelf(shelf map[string]any) (int, error) {
	var index int
	err := s.mutate(func(doc Document) error {
		shelves := append(doc.Shelves(), shelf)
		doc[KeyShelves] = shelves
		index = len(shelves) - 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateShelf merges partial into the shelf at index
func (s *Store) UpdateShelf(index int, partial map[string]any) error {
	return s.mutate(func(doc Document) error {
		shelves := doc.Shelves()
		if index < 0 || index >= len(shelves) {
			return errInvalidShelf()
		}
		shelf, ok := shelves[index].(map[string]any)
		if !ok {
			return apperrors.BadRequest("shelf %d is not an object", index)
		}
		for k, v := range partial {
			shelf[k] = v
		}
		return nil
	})
}

// DeleteShelf removes the shelf at index; later shelves shift down by one
func (s *Store) DeleteShelf(index int) error {
	return s.mutate(func(doc Document) error {
		shelves := doc.Shelves()
		if index < 0 || index >= len(shelves) {
			return errInvalidShelf()
		}
		doc[KeyShelves] = append(shelves[:index], shelves[index+1:]...)
		return nil
	})
}
